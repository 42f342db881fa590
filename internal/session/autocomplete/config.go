package autocomplete

import (
	"time"

	"symptom-checker/internal/common/config"
)

type Config struct {
	QuietPeriod time.Duration
	MinLength   int
	// Timeout bounds each query; zero leaves it unbounded.
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		QuietPeriod: 300 * time.Millisecond,
		MinLength:   2,
	}
}

func LoadConfig(cfg config.AutocompleteConfig, timeout time.Duration) *Config {
	c := DefaultConfig()
	c.Timeout = timeout
	if cfg.QuietPeriod > 0 {
		c.QuietPeriod = config.GetDuration(cfg.QuietPeriod)
	}
	if cfg.MinLength > 0 {
		c.MinLength = cfg.MinLength
	}
	return c
}
