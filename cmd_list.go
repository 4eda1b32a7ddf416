package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cmdList = &cobra.Command{
	Use:   "list <sav>",
	Short: "List the projects of a container",
	Args:  cobra.ExactArgs(1),
	Run:   list,
}

func init() {
	cmdMain.AddCommand(cmdList)
}

func list(cmd *cobra.Command, args []string) {
	c := loadContainer(args[0])

	active, hasActive := c.ActiveSlot()

	fmt.Printf("%-4s  %-8s  %-7s  %s\n", "SLOT", "NAME", "VERSION", "BLOCKS")

	for slot, p := range c.Projects() {
		if p == nil {
			continue
		}

		line := fmt.Sprintf("%-4d  %-8s  %-7d  %d", slot, p.Name, p.Version, p.SizeBlocks)
		if hasActive && slot == active {
			color.Green("%s  (active)", line)
		} else {
			fmt.Println(line)
		}
	}

	color.Yellow("%d blocks free", c.FreeBlocks())
}
