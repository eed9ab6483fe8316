// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Cache     CacheConfig     `yaml:"cache"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the event store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// CacheConfig configures the advisory query result cache.
// Only fully closed date ranges are ever cached.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// AnalyticsConfig holds the analytics tunables. Everything here can be
// hot-reloaded without a restart.
type AnalyticsConfig struct {
	CohortWindow         int              `yaml:"cohort_window" validate:"min=1,max=104"`
	CurveDays            int              `yaml:"curve_days" validate:"min=1,max=365"`
	Horizons             []int            `yaml:"horizons" validate:"required,dive,min=1,max=365"`
	TopK                 int              `yaml:"top_k" validate:"min=1"`
	DormancyThreshold    time.Duration    `yaml:"dormancy_threshold" validate:"min=24h"`
	ReactivationLookback time.Duration    `yaml:"reactivation_lookback" validate:"min=1h"`
	Engagement           EngagementTuning `yaml:"engagement"`
	Benchmark            BenchmarkConfig  `yaml:"benchmark"`
	Funnels              []FunnelConfig   `yaml:"funnels" validate:"dive"`
}

// EngagementTuning configures the engagement scorer.
type EngagementTuning struct {
	Weights WeightsConfig  `yaml:"weights"`
	Buckets []BucketConfig `yaml:"buckets" validate:"required,dive"`
}

// WeightsConfig holds the per-action engagement score weights.
type WeightsConfig struct {
	Product float64 `yaml:"product" validate:"min=0"`
	Post    float64 `yaml:"post" validate:"min=0"`
	Click   float64 `yaml:"click" validate:"min=0"`
}

// BucketConfig defines one score histogram bucket. Max < 0 means open-ended.
type BucketConfig struct {
	Label string  `yaml:"label" validate:"required"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// BenchmarkConfig holds the retention benchmark curve overlaid on
// cohort retention charts.
type BenchmarkConfig struct {
	Label  string    `yaml:"label" validate:"required"`
	Values []float64 `yaml:"values" validate:"required,min=1,dive,min=0,max=100"`
}

// FunnelConfig defines a predefined funnel addressable by id.
type FunnelConfig struct {
	ID    string             `yaml:"id" validate:"required"`
	Name  string             `yaml:"name" validate:"required"`
	Steps []FunnelStepConfig `yaml:"steps" validate:"required,min=2,dive"`
}

// FunnelStepConfig defines one funnel step. Account steps match on
// account creation rather than an event type.
type FunnelStepConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Account bool   `yaml:"account"`
	Event   string `yaml:"event"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration built entirely from defaults and
// INSIGHT_* environment variables. Useful for Docker deployments where
// no config file is mounted.
//
// Environment variables:
//
//	INSIGHT_SERVER_HOST      - Server host (default: 0.0.0.0)
//	INSIGHT_SERVER_PORT      - Server port (default: 8080)
//	INSIGHT_DATABASE_DRIVER  - Store backend: sqlite or memory (default: sqlite)
//	INSIGHT_DATABASE_DSN     - Database path (default: insight.db)
//	INSIGHT_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	INSIGHT_LOG_FORMAT       - Log format: json or console (default: json)
//	INSIGHT_METRICS_ENABLED  - Enable /metrics endpoint (default: true)
//	INSIGHT_CACHE_ENABLED    - Enable query result cache (default: true)
func Default() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to defaults plus
// environment variables when the file does not exist.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default()
}

// HasEnvConfig reports whether an env-only deployment is configured.
func HasEnvConfig() bool {
	return os.Getenv("INSIGHT_DATABASE_DSN") != "" || os.Getenv("INSIGHT_DATABASE_DRIVER") != ""
}

// applyEnvOverrides applies INSIGHT_* environment variables.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INSIGHT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("INSIGHT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("INSIGHT_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("INSIGHT_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("INSIGHT_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("INSIGHT_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("INSIGHT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("INSIGHT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("INSIGHT_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("INSIGHT_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if v := os.Getenv("INSIGHT_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("INSIGHT_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}

	if v := os.Getenv("INSIGHT_DORMANCY_THRESHOLD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analytics.DormancyThreshold = d
		}
	}
	if v := os.Getenv("INSIGHT_COHORT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analytics.CohortWindow = n
		}
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "insight.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1024
	}

	a := &cfg.Analytics
	if a.CohortWindow == 0 {
		a.CohortWindow = 8
	}
	if a.CurveDays == 0 {
		a.CurveDays = 30
	}
	if len(a.Horizons) == 0 {
		a.Horizons = []int{1, 7, 30, 90}
	}
	if a.TopK == 0 {
		a.TopK = 5
	}
	if a.DormancyThreshold == 0 {
		a.DormancyThreshold = 30 * 24 * time.Hour
	}
	if a.ReactivationLookback == 0 {
		a.ReactivationLookback = 14 * 24 * time.Hour
	}

	w := &a.Engagement.Weights
	if w.Product == 0 && w.Post == 0 && w.Click == 0 {
		w.Product = 10
		w.Post = 15
		w.Click = 0.5
	}
	if len(a.Engagement.Buckets) == 0 {
		a.Engagement.Buckets = []BucketConfig{
			{Label: "dormant", Min: 0, Max: 10},
			{Label: "casual", Min: 10, Max: 50},
			{Label: "engaged", Min: 50, Max: 150},
			{Label: "power", Min: 150, Max: -1},
		}
	}

	if a.Benchmark.Label == "" {
		a.Benchmark.Label = "industry median"
	}
	if len(a.Benchmark.Values) == 0 {
		a.Benchmark.Values = []float64{100, 42, 31, 26, 23, 21, 20, 19}
	}

	if len(a.Funnels) == 0 {
		a.Funnels = []FunnelConfig{
			{
				ID:   "activation",
				Name: "Creator activation",
				Steps: []FunnelStepConfig{
					{Name: "Account created", Account: true},
					{Name: "First product", Event: "product_created"},
					{Name: "First click", Event: "click"},
				},
			},
			{
				ID:   "engagement",
				Name: "Follower engagement",
				Steps: []FunnelStepConfig{
					{Name: "Account created", Account: true},
					{Name: "First follow", Event: "follow"},
					{Name: "First favorite", Event: "favorite"},
				},
			},
		}
	}
}

// Validate checks structural constraints on the configuration.
// The analytics section carries struct tags checked by the validator;
// cross-field rules are enforced here.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	// Buckets must tile the score axis without gaps.
	buckets := cfg.Analytics.Engagement.Buckets
	for i := 1; i < len(buckets); i++ {
		if buckets[i].Min != buckets[i-1].Max {
			return fmt.Errorf("engagement.buckets[%d].min must equal previous max (%v != %v)",
				i, buckets[i].Min, buckets[i-1].Max)
		}
	}
	for i, b := range buckets {
		if b.Max >= 0 && b.Max <= b.Min {
			return fmt.Errorf("engagement.buckets[%d]: max must exceed min", i)
		}
		if b.Max < 0 && i != len(buckets)-1 {
			return fmt.Errorf("engagement.buckets[%d]: only the last bucket may be open-ended", i)
		}
	}

	seen := map[string]bool{}
	for i, f := range cfg.Analytics.Funnels {
		if seen[f.ID] {
			return fmt.Errorf("funnels[%d]: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = true
		for j, s := range f.Steps {
			if s.Account && j != 0 {
				return fmt.Errorf("funnels[%d].steps[%d]: account step must be first", i, j)
			}
			if !s.Account && s.Event == "" {
				return fmt.Errorf("funnels[%d].steps[%d]: event is required", i, j)
			}
		}
	}

	return nil
}
