// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Inference    InferenceConfig    `mapstructure:"inference"`
	Autocomplete AutocompleteConfig `mapstructure:"autocomplete"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// InferenceConfig describes the remote inference/autocomplete service.
type InferenceConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      int           `mapstructure:"timeout_ms"` // milliseconds, 0 disables the timeout
	RegistryPath string        `mapstructure:"registry_path"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig mirrors the gobreaker settings used for collaborator calls.
type BreakerConfig struct {
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval_ms"`
	Timeout          int     `mapstructure:"timeout_ms"`
	FailureThreshold float64 `mapstructure:"failure_threshold"`
	MinRequests      uint32  `mapstructure:"min_requests"`
}

type AutocompleteConfig struct {
	QuietPeriod int `mapstructure:"quiet_period_ms"`
	MinLength   int `mapstructure:"min_length"`
}

// CacheConfig controls the redis-backed suggestion cache.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl_seconds"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// RequestTimeout returns the collaborator timeout; zero means requests may hang indefinitely.
func (c InferenceConfig) RequestTimeout() time.Duration {
	return GetDuration(c.Timeout)
}

func (c CacheConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Second
}
