package main

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var tuningFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "judgecli",
	Short: "Judge lesson drafts from the command line",
	Long: `judgecli runs the lesson content quality pipeline offline.

The check command runs only the cheap structural heuristics; the judge
command adds the LLM judge and routing decision on top.`,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&tuningFile, "tuning", "", "YAML tuning file overriding default thresholds")
}
