package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creatorhub/insight/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 15s

database:
  driver: "sqlite"
  dsn: ":memory:"

analytics:
  cohort_window: 12
  top_k: 10
  dormancy_threshold: 720h
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Analytics.CohortWindow != 12 {
		t.Errorf("CohortWindow = %d, want 12", cfg.Analytics.CohortWindow)
	}
	if cfg.Analytics.TopK != 10 {
		t.Errorf("TopK = %d, want 10", cfg.Analytics.TopK)
	}
	if cfg.Analytics.DormancyThreshold != 720*time.Hour {
		t.Errorf("DormancyThreshold = %v, want 720h", cfg.Analytics.DormancyThreshold)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "server:\n  port: 8081\n")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Analytics.CohortWindow != 8 {
		t.Errorf("default CohortWindow = %d, want 8", cfg.Analytics.CohortWindow)
	}
	if cfg.Analytics.TopK != 5 {
		t.Errorf("default TopK = %d, want 5", cfg.Analytics.TopK)
	}
	if cfg.Analytics.DormancyThreshold != 30*24*time.Hour {
		t.Errorf("default DormancyThreshold = %v, want 720h", cfg.Analytics.DormancyThreshold)
	}
	if cfg.Analytics.ReactivationLookback != 14*24*time.Hour {
		t.Errorf("default ReactivationLookback = %v, want 336h", cfg.Analytics.ReactivationLookback)
	}
	got := cfg.Analytics.Engagement.Weights
	if got.Product != 10 || got.Post != 15 || got.Click != 0.5 {
		t.Errorf("default weights = %+v, want {10 15 0.5}", got)
	}
	if len(cfg.Analytics.Horizons) != 4 || cfg.Analytics.Horizons[3] != 90 {
		t.Errorf("default horizons = %v, want [1 7 30 90]", cfg.Analytics.Horizons)
	}
	// Default funnels must be addressable
	if len(cfg.Analytics.Funnels) == 0 || cfg.Analytics.Funnels[0].ID != "activation" {
		t.Errorf("default funnels missing activation: %+v", cfg.Analytics.Funnels)
	}
	// Last default bucket is open-ended
	buckets := cfg.Analytics.Engagement.Buckets
	if len(buckets) == 0 || buckets[len(buckets)-1].Max >= 0 {
		t.Errorf("default buckets should end open-ended: %+v", buckets)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_INSIGHT_DSN", "/tmp/expanded.db")
	defer os.Unsetenv("TEST_INSIGHT_DSN")

	content := `
database:
  dsn: "${TEST_INSIGHT_DSN}"
`

	cfg := writeAndLoad(t, content)

	if cfg.Database.DSN != "/tmp/expanded.db" {
		t.Errorf("Database.DSN = %s, want /tmp/expanded.db", cfg.Database.DSN)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	os.Setenv("INSIGHT_SERVER_PORT", "7777")
	os.Setenv("INSIGHT_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("INSIGHT_SERVER_PORT")
		os.Unsetenv("INSIGHT_LOG_LEVEL")
	}()

	content := `
server:
  port: 8080
logging:
  level: "info"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	content := `
database:
  driver: "postgres"
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for unsupported database.driver")
	}
}

func TestLoad_BucketGap(t *testing.T) {
	content := `
analytics:
  engagement:
    buckets:
      - label: "low"
        min: 0
        max: 10
      - label: "high"
        min: 20
        max: -1
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for gap between score buckets")
	}
}

func TestLoad_OpenBucketNotLast(t *testing.T) {
	content := `
analytics:
  engagement:
    buckets:
      - label: "low"
        min: 0
        max: -1
      - label: "high"
        min: -1
        max: 100
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for open-ended bucket before last position")
	}
}

func TestLoad_DuplicateFunnelID(t *testing.T) {
	content := `
analytics:
  funnels:
    - id: "activation"
      name: "A"
      steps:
        - name: "Account"
          account: true
        - name: "Product"
          event: "product_created"
    - id: "activation"
      name: "B"
      steps:
        - name: "Account"
          account: true
        - name: "Click"
          event: "click"
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for duplicate funnel id")
	}
}

func TestLoad_AccountStepNotFirst(t *testing.T) {
	content := `
analytics:
  funnels:
    - id: "bad"
      name: "Bad"
      steps:
        - name: "Product"
          event: "product_created"
        - name: "Account"
          account: true
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for account step after position zero")
	}
}

func TestLoad_SingleStepFunnel(t *testing.T) {
	content := `
analytics:
  funnels:
    - id: "short"
      name: "Short"
      steps:
        - name: "Account"
          account: true
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for funnel with fewer than two steps")
	}
}

func TestLoad_BenchmarkOutOfRange(t *testing.T) {
	content := `
analytics:
  benchmark:
    label: "bad"
    values: [100, 42, 150]
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for benchmark value above 100")
	}
}

func TestDefault(t *testing.T) {
	os.Setenv("INSIGHT_DATABASE_DRIVER", "memory")
	os.Setenv("INSIGHT_COHORT_WINDOW", "16")
	defer func() {
		os.Unsetenv("INSIGHT_DATABASE_DRIVER")
		os.Unsetenv("INSIGHT_COHORT_WINDOW")
	}()

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("Default error: %v", err)
	}

	if cfg.Database.Driver != "memory" {
		t.Errorf("Database.Driver = %s, want memory", cfg.Database.Driver)
	}
	if cfg.Analytics.CohortWindow != 16 {
		t.Errorf("CohortWindow = %d, want 16", cfg.Analytics.CohortWindow)
	}
}

func TestLoadWithFallback_FileMissing(t *testing.T) {
	cfg, err := config.LoadWithFallback("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `
analytics:
  this is not valid yaml: [
`
	if _, err := writeAndLoadErr(t, content); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
