package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel  string
	logFormat string
	version   = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fault injection orchestrator for GDB/MI-driven ELF targets",
	Long: `fit drives GDB/MI against a compiled ELF binary (hosted or embedded) to run
a golden execution followed by a campaign of injected executions, recording
where each injected run's observed state diverges from the golden run.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(goldenCmd)
}

// Subcommands are defined in separate files:
// - runCmd in run.go
// - validateCmd in validate.go
// - goldenCmd in golden.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
