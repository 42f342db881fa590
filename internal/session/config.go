package session

import (
	"symptom-checker/internal/common/config"
	"symptom-checker/internal/session/analysis"
	"symptom-checker/internal/session/autocomplete"
)

type Config struct {
	Autocomplete *autocomplete.Config
	Analysis     *analysis.Config
}

// LoadConfig derives the session settings from the application config.
func LoadConfig(cfg *config.Config) *Config {
	timeout := cfg.Inference.RequestTimeout()
	return &Config{
		Autocomplete: autocomplete.LoadConfig(cfg.Autocomplete, timeout),
		Analysis:     analysis.LoadConfig(timeout),
	}
}
