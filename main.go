package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/dot5enko/lsdsav/container"
	"github.com/dot5enko/lsdsav/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cmdMain = &cobra.Command{
	Use:   "lsdsav",
	Short: "Inspect and edit LSDJ .sav containers",
	Run:   printUsageAndExit1,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagMain.Verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var flagMain struct {
	Verbose bool
	Workers int
}

func init() {
	cmdMain.PersistentFlags().BoolVarP(&flagMain.Verbose, "verbose", "v", false, "Log every load and save step")
	cmdMain.PersistentFlags().IntVar(&flagMain.Workers, "workers", 0, "Projects processed concurrently (0 = number of CPUs)")
}

func main() {
	if err := cmdMain.Execute(); err != nil {
		os.Exit(1)
	}
}

func printUsageAndExit1(cmd *cobra.Command, args []string) {
	_ = cmd.Usage()
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	color.Red("Error: "+format, args...)
	os.Exit(1)
}

func check(err error) {
	if err != nil {
		fatalf("%v", err)
	}
}

func config() container.Config {
	return container.Config{
		Logger:  slog.Default(),
		Workers: flagMain.Workers,
	}
}

func loadContainer(path string) *container.Container {
	c, err := container.Load(path, config())
	if err != nil {
		fatalf("unable to load %s: %v", path, err)
	}
	return c
}

// outputPath is the -o flag when given, the input otherwise.
func outputPath(output, input string) string {
	if output != "" {
		return output
	}
	return input
}

func parseSlot(s string) (int, error) {
	slot, err := strconv.ParseInt(s, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q", s)
	}
	if slot < 0 || slot >= schema.NumSlots {
		return 0, fmt.Errorf("slot %d out of range 0..%d", slot, schema.NumSlots-1)
	}
	return int(slot), nil
}

func slotArg(index int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if index >= len(args) {
			return nil
		}
		_, err := parseSlot(args[index])
		return err
	}
}

func composeArgs(fn cobra.PositionalArgs, fns ...cobra.PositionalArgs) cobra.PositionalArgs {
	if len(fns) == 0 {
		return fn
	}

	rest := composeArgs(fns[0], fns[1:]...)
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return err
		}
		return rest(cmd, args)
	}
}
