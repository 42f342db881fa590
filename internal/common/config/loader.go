// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment specific overrides are optional.
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// INFERENCE_BASE_URL overrides inference.base_url and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// AutomaticEnv only covers keys viper already knows about, so every key is
// bound explicitly to make env-only setups work without a yaml file.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"app.name", "app.version", "app.environment",
		"logging.level", "logging.format",
		"inference.base_url", "inference.timeout_ms", "inference.registry_path",
		"inference.breaker.max_requests", "inference.breaker.interval_ms",
		"inference.breaker.timeout_ms", "inference.breaker.failure_threshold",
		"inference.breaker.min_requests",
		"autocomplete.quiet_period_ms", "autocomplete.min_length",
		"cache.enabled", "cache.ttl_seconds",
		"cache.redis.address", "cache.redis.password", "cache.redis.db",
		"metrics.address",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "symptom-session"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	b := &cfg.Inference.Breaker
	if b.MaxRequests == 0 {
		b.MaxRequests = 5
	}
	if b.Interval == 0 {
		b.Interval = 30000
	}
	if b.Timeout == 0 {
		b.Timeout = 60000
	}
	if b.FailureThreshold == 0 {
		b.FailureThreshold = 0.8
	}
	if b.MinRequests == 0 {
		b.MinRequests = 5
	}

	if cfg.Autocomplete.QuietPeriod == 0 {
		cfg.Autocomplete.QuietPeriod = 300
	}
	if cfg.Autocomplete.MinLength == 0 {
		cfg.Autocomplete.MinLength = 2
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 300
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = "localhost:6379"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Inference.BaseURL == "" {
		return fmt.Errorf("inference.base_url is required")
	}
	if cfg.Inference.Timeout < 0 {
		return fmt.Errorf("inference.timeout_ms must not be negative")
	}
	if cfg.Autocomplete.QuietPeriod < 0 {
		return fmt.Errorf("autocomplete.quiet_period_ms must be positive")
	}
	if cfg.Autocomplete.MinLength < 0 {
		return fmt.Errorf("autocomplete.min_length must be positive")
	}
	if cfg.Inference.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("inference.breaker.failure_threshold must be within (0, 1]")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
