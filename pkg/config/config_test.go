package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "verdict.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ============================================================================
// Defaults Tests
// ============================================================================

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("listen address = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if !cfg.Policy.Watch {
		t.Error("expected watch enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Ledger.Backend != "sqlite" {
		t.Errorf("ledger backend = %q, want sqlite", cfg.Ledger.Backend)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.ListenAddress = "0.0.0.0:9999"
	cfg.Ledger.RetentionDays = 90

	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("explicit listen address overwritten: %q", cfg.Server.ListenAddress)
	}
	if cfg.Ledger.RetentionDays != 90 {
		t.Errorf("explicit retention overwritten: %d", cfg.Ledger.RetentionDays)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("read timeout = %s, want default %s", cfg.Server.ReadTimeout, DefaultReadTimeout)
	}
}

// ============================================================================
// Load Tests
// ============================================================================

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: 5s
policy:
  path: /etc/verdict/policies
  watch: false
ledger:
  backend: memory
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %s", cfg.Server.ReadTimeout)
	}
	if cfg.Policy.Watch {
		t.Error("expected watch disabled by file")
	}
	if cfg.Ledger.Backend != "memory" {
		t.Errorf("ledger backend = %q", cfg.Ledger.Backend)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Telemetry.Logging.Level)
	}

	// Unset sections keep defaults.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("write timeout = %s, want default", cfg.Server.WriteTimeout)
	}
	if cfg.Ledger.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("prune schedule = %q, want default", cfg.Ledger.PruneSchedule)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8187"
ledger:
  backend: sqlite
`)

	t.Setenv("VERDICT_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("VERDICT_LEDGER_BACKEND", "memory")
	t.Setenv("VERDICT_POLICY_WATCH", "false")
	t.Setenv("VERDICT_LEDGER_RETENTION_DAYS", "14")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("listen address = %q, want env override", cfg.Server.ListenAddress)
	}
	if cfg.Ledger.Backend != "memory" {
		t.Errorf("ledger backend = %q, want env override", cfg.Ledger.Backend)
	}
	if cfg.Policy.Watch {
		t.Error("expected env override to disable watch")
	}
	if cfg.Ledger.RetentionDays != 14 {
		t.Errorf("retention days = %d, want 14", cfg.Ledger.RetentionDays)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// ============================================================================
// Validation Tests
// ============================================================================

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ListenAddress = "no-port"
	cfg.Ledger.Backend = "postgres"
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "ledger.backend") {
		t.Errorf("expected message to name ledger.backend: %s", err.Error())
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "8080" }, "server.listen_address"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "server.read_timeout"},
		{"missing policy path", func(c *Config) { c.Policy.Path = "" }, "policy.path"},
		{"retention below minimum", func(c *Config) { c.Ledger.RetentionDays = 3 }, "ledger.retention_days"},
		{"sqlite without path", func(c *Config) { c.Ledger.SQLitePath = "" }, "ledger.sqlite_path"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics path without slash", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected error to name %s, got: %s", tt.field, err.Error())
			}
		})
	}
}

func TestValidate_MemoryBackendNeedsNoPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.Backend = "memory"
	cfg.Ledger.SQLitePath = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("expected memory backend without path to validate, got %v", err)
	}
}
