// Package config loads engine configuration with viper.
//
// Precedence, highest first: runtime overrides passed to Load, LOGAI_
// environment variables, built-in defaults. There is no config file; the
// engine is meant to run with defaults plus a handful of env vars.
package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "LOGAI"

var (
	configMu  sync.RWMutex
	appConfig *Config
)

// envSpec maps one flat environment variable to a config path.
type envSpec struct {
	Name string
	Path string
}

// getEnvSpecs returns the flat env var names recognized alongside the
// automatic LOGAI_SECTION_KEY form.
func getEnvSpecs() []envSpec {
	return []envSpec{
		{Name: envPrefix + "_HOST", Path: "server.host"},
		{Name: envPrefix + "_PORT", Path: "server.port"},
		{Name: envPrefix + "_READ_TIMEOUT", Path: "server.read_timeout"},
		{Name: envPrefix + "_WRITE_TIMEOUT", Path: "server.write_timeout"},
		{Name: envPrefix + "_SHUTDOWN_TIMEOUT", Path: "server.shutdown_timeout"},
		{Name: envPrefix + "_LOG_LEVEL", Path: "logging.level"},
		{Name: envPrefix + "_LOG_PROFILE", Path: "logging.profile"},
		{Name: envPrefix + "_METRICS_ENABLED", Path: "metrics.enabled"},
		{Name: envPrefix + "_CATALOG_PATH", Path: "catalog.path"},
		{Name: envPrefix + "_GLOBAL_SLOTS", Path: "search.global_slots"},
		{Name: envPrefix + "_PER_CALL_SLOTS", Path: "search.per_call_slots"},
		{Name: envPrefix + "_SEARCH_DEADLINE", Path: "search.deadline"},
		{Name: envPrefix + "_PREVIEW_LIMIT", Path: "search.preview_limit"},
		{Name: envPrefix + "_CACHE_TTL", Path: "cache.ttl"},
		{Name: envPrefix + "_CACHE_MAX_BYTES", Path: "cache.max_bytes"},
		{Name: envPrefix + "_CACHE_MAX_ENTRIES", Path: "cache.max_entries"},
		{Name: envPrefix + "_REDIS_ENABLED", Path: "redis.enabled"},
		{Name: envPrefix + "_REDIS_ADDR", Path: "redis.addr"},
		{Name: envPrefix + "_REDIS_PASSWORD", Path: "redis.password"},
		{Name: envPrefix + "_REDIS_DB", Path: "redis.db"},
		{Name: envPrefix + "_OUTPUT_DIR", Path: "output.dir"},
		{Name: envPrefix + "_OUTPUT_RETENTION", Path: "output.retention"},
		{Name: envPrefix + "_OUTPUT_SWEEP_INTERVAL", Path: "output.sweep_interval"},
		{Name: envPrefix + "_OUTPUT_READ_MAX_BYTES", Path: "output.read_max_bytes"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("health.enabled", true)

	v.SetDefault("catalog.path", "/etc/logai/services.yaml")

	v.SetDefault("search.global_slots", 20)
	v.SetDefault("search.per_call_slots", 5)
	v.SetDefault("search.deadline", "300s")
	v.SetDefault("search.preview_limit", 50)

	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_bytes", 500*1024*1024)
	v.SetDefault("cache.max_entries", 100)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.retry_delay", "500ms")
	v.SetDefault("redis.max_retries", 100)

	v.SetDefault("output.dir", "/tmp/log-ai")
	v.SetDefault("output.retention", "24h")
	v.SetDefault("output.sweep_interval", "1h")
	v.SetDefault("output.read_max_bytes", 10*1024*1024)
}

// Load builds the configuration and installs it as the current one.
// Later calls replace the installed config; GetConfig always returns the
// most recent.
func Load(_ context.Context, overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for _, spec := range getEnvSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", spec.Name, err)
		}
	}

	// Explicit Set outranks env vars, giving runtime overrides the top of
	// the precedence order.
	for _, o := range overrides {
		applyOverrides(v, "", o)
	}

	var cfg Config
	decode := func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
	if err := v.Unmarshal(&cfg, decode); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()
	return &cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil before
// the first Load.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func applyOverrides(v *viper.Viper, prefix string, values map[string]any) {
	for key, val := range values {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			applyOverrides(v, path, nested)
			continue
		}
		v.Set(path, val)
	}
}

func validate(cfg *Config) error {
	if cfg.Search.GlobalSlots < 1 {
		return fmt.Errorf("search.global_slots must be at least 1, got %d", cfg.Search.GlobalSlots)
	}
	if cfg.Search.PerCallSlots < 1 {
		return fmt.Errorf("search.per_call_slots must be at least 1, got %d", cfg.Search.PerCallSlots)
	}
	if cfg.Search.PerCallSlots > cfg.Search.GlobalSlots {
		return fmt.Errorf("search.per_call_slots (%d) exceeds search.global_slots (%d)", cfg.Search.PerCallSlots, cfg.Search.GlobalSlots)
	}
	if cfg.Search.PreviewLimit < 1 {
		return fmt.Errorf("search.preview_limit must be at least 1, got %d", cfg.Search.PreviewLimit)
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	return nil
}
