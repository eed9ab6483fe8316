// Package bootstrap wires all dependencies and starts the application.
// Everything is driven by the config.Holder so that analytics tunables
// can be hot-reloaded without a restart.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/creatorhub/insight/adapters/clock"
	"github.com/creatorhub/insight/adapters/memory"
	"github.com/creatorhub/insight/adapters/metrics"
	"github.com/creatorhub/insight/adapters/sqlite"
	"github.com/creatorhub/insight/app"
	"github.com/creatorhub/insight/config"
	"github.com/creatorhub/insight/domain/engagement"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/funnel"
	"github.com/creatorhub/insight/ports"
	"github.com/creatorhub/insight/web"
)

// App holds the assembled application.
type App struct {
	Logger     zerolog.Logger
	Holder     *config.Holder
	DB         *sqlite.DB
	Metrics    *metrics.Collector
	Insight    *app.InsightService
	HTTPServer *http.Server

	events    ports.EventStore
	users     ports.UserStore
	campaigns ports.CampaignStore
}

// New builds the application from the holder's current configuration.
// Server address, database driver and cache sizing are fixed at startup;
// analytics tunables track the holder.
func New(holder *config.Holder) (*App, error) {
	cfg := holder.Get()

	a := &App{
		Logger: setupLogger(cfg.Logging),
		Holder: holder,
	}

	deps, err := a.buildDependencies(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		deps.Metrics = a.Metrics
	}

	tuning, err := TuningFromConfig(cfg.Analytics)
	if err != nil {
		return nil, fmt.Errorf("analytics config: %w", err)
	}

	a.Insight = app.NewInsightService(deps, tuning, app.Options{
		CacheEnabled:    cfg.Cache.Enabled,
		CacheTTL:        cfg.Cache.TTL,
		CacheMaxEntries: cfg.Cache.MaxEntries,
	})

	holder.OnChange(a.applyConfig)

	a.initHTTPServer(cfg)
	return a, nil
}

func (a *App) buildDependencies(cfg *config.Config) (app.Deps, error) {
	deps := app.Deps{
		Clock:  clock.Real{},
		Logger: a.Logger,
	}

	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			return deps, fmt.Errorf("open database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return deps, fmt.Errorf("migrate database: %w", err)
		}
		a.DB = db
		deps.Events = sqlite.NewEventStore(db)
		deps.Users = sqlite.NewUserStore(db)
		deps.Campaigns = sqlite.NewCampaignStore(db)
		a.Logger.Info().Str("dsn", cfg.Database.DSN).Msg("sqlite store initialized")
	case "memory":
		deps.Events = memory.NewEventStore()
		deps.Users = memory.NewUserStore()
		deps.Campaigns = memory.NewCampaignStore()
		a.Logger.Info().Msg("in-memory store initialized")
	default:
		return deps, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	a.events, a.users, a.campaigns = deps.Events, deps.Users, deps.Campaigns
	return deps, nil
}

// applyConfig pushes a successfully reloaded configuration into the
// running service. Invalid analytics sections keep the previous tuning.
func (a *App) applyConfig(cfg *config.Config) {
	tuning, err := TuningFromConfig(cfg.Analytics)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("reloaded analytics config rejected, keeping previous tuning")
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
		return
	}

	a.Insight.UpdateTuning(tuning)

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
	}
	a.Logger.Info().Msg("analytics tuning applied")
}

func (a *App) initHTTPServer(cfg *config.Config) {
	r := chi.NewRouter()

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
		a.Logger.Info().Str("path", path).Msg("prometheus metrics handler mounted")
	}

	r.Mount("/", web.NewHandler(a.Insight, a.Logger).Router())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Stores exposes the configured data stores for ingestion tooling.
func (a *App) Stores() (ports.EventStore, ports.UserStore, ports.CampaignStore) {
	return a.events, a.users, a.campaigns
}

// TuningFromConfig converts the analytics config section into service
// tunables. Funnel definitions are validated against the known event types,
// which the YAML-level validation cannot see.
func TuningFromConfig(ac config.AnalyticsConfig) (app.Tuning, error) {
	t := app.Tuning{
		CohortWindow:         ac.CohortWindow,
		CurveDays:            ac.CurveDays,
		Horizons:             append([]int(nil), ac.Horizons...),
		TopK:                 ac.TopK,
		DormancyThreshold:    ac.DormancyThreshold,
		ReactivationLookback: ac.ReactivationLookback,
		Weights: engagement.Weights{
			Product: ac.Engagement.Weights.Product,
			Post:    ac.Engagement.Weights.Post,
			Click:   ac.Engagement.Weights.Click,
		},
		BenchmarkLabel:  ac.Benchmark.Label,
		BenchmarkValues: append([]float64(nil), ac.Benchmark.Values...),
	}

	for _, b := range ac.Engagement.Buckets {
		t.Buckets = append(t.Buckets, engagement.BucketSpec{
			Label: b.Label,
			Min:   b.Min,
			Max:   b.Max,
		})
	}

	for _, fc := range ac.Funnels {
		def := funnel.Definition{ID: fc.ID, Name: fc.Name}
		for _, sc := range fc.Steps {
			def.Steps = append(def.Steps, funnel.Step{
				Name:    sc.Name,
				Account: sc.Account,
				Event:   event.Type(sc.Event),
			})
		}
		if err := def.Validate(); err != nil {
			return app.Tuning{}, fmt.Errorf("funnel %q: %w", fc.ID, err)
		}
		t.Funnels = append(t.Funnels, def)
	}

	return t, nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
