package main

import (
	"bytes"
	"fmt"

	"github.com/dot5enko/lsdsav/io"
	"github.com/dot5enko/lsdsav/project"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cmdExport = &cobra.Command{
	Use:   "export <sav> <slot> <file>",
	Short: "Export one project as an .lsdsng file",
	Args:  composeArgs(cobra.ExactArgs(3), slotArg(1)),
	Run:   export,
}

var cmdImport = &cobra.Command{
	Use:   "import <sav> <slot> <file>",
	Short: "Store an .lsdsng file in a slot, replacing what is there",
	Args:  composeArgs(cobra.ExactArgs(3), slotArg(1)),
	Run:   importProject,
}

var cmdRemove = &cobra.Command{
	Use:   "remove <sav> <slot>",
	Short: "Delete the project in a slot",
	Args:  composeArgs(cobra.ExactArgs(2), slotArg(1)),
	Run:   remove,
}

var cmdRepack = &cobra.Command{
	Use:   "repack <sav>",
	Short: "Decode and re-encode every project",
	Args:  cobra.ExactArgs(1),
	Run:   repack,
}

var flagProject struct {
	Raw    bool
	Output string
}

func init() {
	cmdMain.AddCommand(cmdExport, cmdImport, cmdRemove, cmdRepack)

	for _, cmd := range []*cobra.Command{cmdExport, cmdImport} {
		cmd.Flags().BoolVar(&flagProject.Raw, "raw", false, "Use an lz4 raw dump instead of .lsdsng")
	}
	for _, cmd := range []*cobra.Command{cmdImport, cmdRemove, cmdRepack} {
		cmd.Flags().StringVarP(&flagProject.Output, "output", "o", "", "Write the container here instead of in place")
	}
}

func export(cmd *cobra.Command, args []string) {
	c := loadContainer(args[0])
	slot, _ := parseSlot(args[1])

	p, ok := c.Project(slot)
	if !ok {
		fatalf("slot %d is empty", slot)
	}

	var out bytes.Buffer
	if flagProject.Raw {
		check(p.WriteRawDump(&out))
	} else {
		_, err := p.WriteLsdsng(&out)
		check(err)
	}

	check(io.WriteFile(args[2], out.Bytes()))

	color.Green("exported %q from slot %d to %s (%d bytes)", p.Name, slot, args[2], out.Len())
}

func importProject(cmd *cobra.Command, args []string) {
	c := loadContainer(args[0])
	slot, _ := parseSlot(args[1])

	data, err := io.ReadFile(args[2])
	check(err)

	var p *project.Project
	if flagProject.Raw {
		p, err = project.ReadRawDump(bytes.NewReader(data))
	} else {
		p, err = project.ReadLsdsng(bytes.NewReader(data))
	}
	if err != nil {
		fatalf("unable to read %s: %v", args[2], err)
	}

	check(c.SetProject(slot, p))

	output := outputPath(flagProject.Output, args[0])
	check(c.Save(output))

	stored, _ := c.Project(slot)
	color.Green("imported %q into slot %d, %d blocks, %d free", stored.Name, slot, stored.SizeBlocks, c.FreeBlocks())
}

func remove(cmd *cobra.Command, args []string) {
	c := loadContainer(args[0])
	slot, _ := parseSlot(args[1])

	if _, ok := c.Project(slot); !ok {
		fatalf("slot %d is already empty", slot)
	}

	check(c.RemoveProject(slot))
	check(c.Save(outputPath(flagProject.Output, args[0])))

	color.Green("removed slot %d, %d blocks free", slot, c.FreeBlocks())
}

func repack(cmd *cobra.Command, args []string) {
	c := loadContainer(args[0])
	before := c.FreeBlocks()

	output := outputPath(flagProject.Output, args[0])
	check(c.Save(output))

	fmt.Printf("wrote %s\n", output)
	color.Yellow("%d blocks free (was %d)", c.FreeBlocks(), before)
}
