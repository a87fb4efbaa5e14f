package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "chaos-triage",
	Short: "Crash-triage tool that deduplicates failing execution traces into bug groups",
	Long: `chaos-triage clusters a corpus of failing execution traces into groups that each
correspond to one distinct underlying bug, by iteratively selecting the basic
block whose occurrence distribution best discriminates failing traces from a
reference set of passing ones. A companion scoring command compares the
emitted groups against ground-truth bug labels.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(scoreCmd)
}

// Commands are defined in separate files:
// - triageCmd in triage.go
// - scoreCmd in score.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
