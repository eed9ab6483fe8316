package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/creatorhub/insight/adapters/sqlite"
	"github.com/creatorhub/insight/bootstrap"
	"github.com/creatorhub/insight/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the insight configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present and within bounds
  - Funnel definitions reference known event types
  - Database is writable (optional)

Examples:
  insight validate
  insight validate --config /etc/insight/config.yaml`,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	// Funnel event types are only checked against the domain here
	if _, err := bootstrap.TuningFromConfig(cfg.Analytics); err != nil {
		fmt.Printf("  %s Funnel definitions valid\n", crossMark)
		return fmt.Errorf("analytics config: %w", err)
	}
	fmt.Printf("  %s Funnel definitions valid\n", checkMark)

	// Show config summary
	fmt.Printf("  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Printf("  %s Cohort window: %d buckets\n", checkMark, cfg.Analytics.CohortWindow)
	fmt.Printf("  %s Funnels configured: %d\n", checkMark, len(cfg.Analytics.Funnels))
	fmt.Printf("  %s Cache enabled: %v\n", checkMark, cfg.Cache.Enabled)

	// Optional: check database
	if validateCheckDatabase && cfg.Database.Driver == "sqlite" {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Printf("  %s Database writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Database writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
