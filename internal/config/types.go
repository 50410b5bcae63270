package config

import "time"

// Config is the full engine configuration. Precedence is runtime
// overrides, then LOGAI_ environment variables, then defaults.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Search  SearchConfig  `mapstructure:"search"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Output  OutputConfig  `mapstructure:"output"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig selects log level and output profile.
type LoggingConfig struct {
	Level string `mapstructure:"level"`

	// Profile is STRUCTURED (JSON to stderr) or CONSOLE.
	Profile string `mapstructure:"profile"`
}

// MetricsConfig controls the Prometheus surface.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HealthConfig controls the health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CatalogConfig locates the service catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// SearchConfig bounds search execution.
type SearchConfig struct {
	// GlobalSlots caps concurrent searches across the deployment.
	GlobalSlots int64 `mapstructure:"global_slots"`

	// PerCallSlots caps concurrent service scans within one search.
	PerCallSlots int64 `mapstructure:"per_call_slots"`

	// Deadline auto-cancels long searches, keeping partial results.
	Deadline time.Duration `mapstructure:"deadline"`

	// PreviewLimit caps inline matches per result.
	PreviewLimit int `mapstructure:"preview_limit"`
}

// CacheConfig bounds the shared result cache.
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxBytes   int64         `mapstructure:"max_bytes"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// RedisConfig enables distributed coordination when Enabled is true.
type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// OutputConfig controls spill files and their retention.
type OutputConfig struct {
	// Dir is the spill root. A per-session directory is created inside.
	Dir string `mapstructure:"dir"`

	// Retention and SweepInterval drive the cleanup loop.
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// ReadMaxBytes caps spill read-back; larger files are refused.
	ReadMaxBytes int64 `mapstructure:"read_max_bytes"`
}
