package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "xvenue-arb",
	Short: "Cross-venue prediction-market arbitrage engine",
	Long: `xvenue-arb paper-trades arbitrage across two prediction-market venues.

Each iteration it snapshots both venues, runs the detector suite, filters
through the strict two-venue validator and risk gate, simulates fills
against a paper broker, and writes an incremental report.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
