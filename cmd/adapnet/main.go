package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "adapnet",
		Short: "Adaptive-network epidemic with evolving rewiring strategies",
		Long: `adapnet simulates an SIS-style epidemic on a contact network whose
susceptible nodes cut links to infectious neighbours and rewire according
to an inherited strategy. Strategies compete on closeness and evolve by
elite replication and mutation every generation.

Results are written as Octave vectors (NetValues.txt by default), JSON or
CSV, and can also be stored in SQLite, PostgreSQL or S3.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: json or text")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newConfigCmd(),
		newValidateCmd(),
		newSummaryCmd(),
		newWatchCmd(),
	)

	return rootCmd
}
