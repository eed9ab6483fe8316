package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "insight",
	Short: "Cohort, retention and funnel analytics for creator platforms",
	Long: `Insight is a self-hosted analytics engine for creator platforms.

It ingests user and event projections and serves cohort tables, retention
curves, funnel conversions, engagement scores and win-back campaign
effectiveness over a JSON API.

Quick start:
  insight seed      # Generate a demo dataset
  insight serve     # Start the analytics server

Management:
  insight validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "insight.yaml", "config file path")
}
