package analysis

import "time"

type Config struct {
	// Timeout bounds each analyze request; zero leaves it unbounded.
	Timeout time.Duration
}

func LoadConfig(timeout time.Duration) *Config {
	return &Config{Timeout: timeout}
}
