package main

import (
	"fmt"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/lsdsav/io"
	"github.com/dot5enko/lsdsav/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cmdDump = &cobra.Command{
	Use:   "dump <sav> <block>",
	Short: "Hex dump one block of a container with its owner",
	Args:  cobra.ExactArgs(2),
	Run:   dump,
}

var cmdDiff = &cobra.Command{
	Use:   "diff <file> <file>",
	Short: "Report the first byte at which two files differ",
	Args:  cobra.ExactArgs(2),
	Run:   diff,
}

var flagDiff struct {
	Start int
}

func init() {
	cmdMain.AddCommand(cmdDump, cmdDiff)

	cmdDiff.Flags().IntVarP(&flagDiff.Start, "start", "s", 0, "Offset at which to start comparing")
}

func dump(cmd *cobra.Command, args []string) {
	image, err := io.ReadFile(args[0])
	check(err)

	if len(image) != schema.ContainerSize {
		fatalf("%s is 0x%x bytes, expected 0x%x", args[0], len(image), schema.ContainerSize)
	}

	id, err := strconv.ParseInt(args[1], 0, 0)
	if err != nil || id < 0 || id >= schema.NumBlocks {
		fatalf("invalid block %q", args[1])
	}

	start := schema.PreambleSize + int(id)*schema.BlockSize
	data := image[start : start+schema.BlockSize]

	if id == schema.HeaderBlockID {
		color.Yellow("block 0 (header) at 0x%x", start)
	} else if owner := image[schema.PreambleSize+schema.BATOffset+int(id)-schema.FirstDataBlockID]; owner == schema.EmptyBlock {
		color.Yellow("block %d at 0x%x, unused", id, start)
	} else {
		color.Yellow("block %d at 0x%x, slot %d", id, start, owner)
	}

	fmt.Print(spew.Sdump(data))
}

func diff(cmd *cobra.Command, args []string) {
	a, err := io.ReadFile(args[0])
	check(err)

	b, err := io.ReadFile(args[1])
	check(err)

	d, found, err := io.FirstDifference(a, b, flagDiff.Start)
	check(err)

	if !found {
		color.Green("files are identical from offset 0x%x", flagDiff.Start)
		return
	}

	fmt.Print(d.String())
}
