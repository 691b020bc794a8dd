package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "presskit",
		Short: "presskit finds the fewest button presses that configure a machine",
		Long: `presskit reads machines (indicator lights, buttons and counter targets)
and reports the minimal number of presses summed over all machines, for the
toggle domain, the counter domain or both.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "YAML config file (missing file means defaults)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.AddCommand(newSolveCmd(), newVersionCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of presskit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "presskit version %s\n", version)
		},
	}
}
