package inference

import (
	"time"

	"symptom-checker/internal/common/config"
	commonhttp "symptom-checker/internal/common/http"
)

type Config struct {
	BaseURL      string
	Timeout      time.Duration // zero means no timeout
	RegistryPath string
	Breaker      commonhttp.BreakerSettings
}

func LoadConfig(cfg config.InferenceConfig) *Config {
	breaker := commonhttp.DefaultBreakerSettings("inference")
	if cfg.Breaker.MaxRequests > 0 {
		breaker.MaxRequests = cfg.Breaker.MaxRequests
	}
	if cfg.Breaker.Interval > 0 {
		breaker.Interval = config.GetDuration(cfg.Breaker.Interval)
	}
	if cfg.Breaker.Timeout > 0 {
		breaker.Timeout = config.GetDuration(cfg.Breaker.Timeout)
	}
	if cfg.Breaker.FailureThreshold > 0 {
		breaker.FailureThreshold = cfg.Breaker.FailureThreshold
	}
	if cfg.Breaker.MinRequests > 0 {
		breaker.MinRequests = cfg.Breaker.MinRequests
	}

	return &Config{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.RequestTimeout(),
		RegistryPath: cfg.RegistryPath,
		Breaker:      breaker,
	}
}
