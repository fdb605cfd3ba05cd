package config

import "time"

// Config is the root configuration structure for the verdict service.
type Config struct {
	// Server contains HTTP server configuration including listen
	// address, timeouts, and graceful shutdown.
	Server ServerConfig `yaml:"server"`

	// Policy contains policy source configuration: where policy
	// documents live and whether they are hot reloaded.
	Policy PolicyConfig `yaml:"policy"`

	// Ledger contains spending ledger configuration including backend
	// selection and bucket retention.
	Ledger LedgerConfig `yaml:"ledger"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP decision server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port". Default: "127.0.0.1:8187"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body. Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes
	// of the response. Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request
	// when keep-alives are enabled. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests during graceful shutdown. Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size. Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// PolicyConfig contains configuration for policy loading.
type PolicyConfig struct {
	// Path is the policy YAML file or directory. Default: "./policies"
	Path string `yaml:"path"`

	// Watch enables hot reload on file changes. Default: true
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period after a file event before
	// a reload fires. Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// LedgerConfig contains configuration for the spending ledger.
type LedgerConfig struct {
	// Backend selects the ledger storage backend: "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	// Default: "data/ledger.db"
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how many days of spending buckets to keep.
	// Buckets older than this are pruned. Default: 30, minimum: 7
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for the pruning job.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path. Default: "/metrics"
	Path string `yaml:"path"`
}
