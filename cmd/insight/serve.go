package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/creatorhub/insight/bootstrap"
	"github.com/creatorhub/insight/config"
)

// bootstrapLogger is used before the configured logger exists.
func bootstrapLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analytics server",
	Long: `Start the insight analytics server.

The server will:
  - Load configuration from insight.yaml (or --config)
  - Or load configuration from INSIGHT_* environment variables
  - Open the event store (sqlite or memory)
  - Serve the analytics API and /healthz
  - Hot-reload analytics tunables on config change or SIGHUP

Environment variables (for Docker deployments):
  INSIGHT_DATABASE_DSN        - Database path (default: insight.db)
  INSIGHT_DATABASE_DRIVER     - sqlite or memory
  INSIGHT_SERVER_PORT         - Server port (default: 8080)
  INSIGHT_LOG_LEVEL           - Log level: debug, info, warn, error
  INSIGHT_DORMANCY_THRESHOLD  - Win-back dormancy threshold (e.g. 720h)

Examples:
  insight serve
  insight serve --config /etc/insight/config.yaml
  insight serve --hot-reload=false

  # Docker (env vars only):
  INSIGHT_DATABASE_DSN=/data/insight.db insight serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	if !hasConfigFile && !config.HasEnvConfig() {
		fmt.Println("No configuration found, running with built-in defaults.")
		fmt.Printf("Create %s or set INSIGHT_* environment variables to customize.\n", cfgFile)
		fmt.Println()
	}

	var holder *config.Holder
	var err error

	if hasConfigFile {
		holder, err = config.NewHolder(cfgFile, bootstrapLogger())
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
	} else {
		cfg, loadErr := config.Default()
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		holder = config.NewStaticHolder(cfg, bootstrapLogger())
	}

	app, err := bootstrap.New(holder)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	if hasConfigFile && hotReload {
		if err := holder.WatchFile(); err != nil {
			app.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		holder.WatchSignals()
	}

	// Run (blocks until shutdown)
	return app.Run()
}
