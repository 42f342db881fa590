package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"symptom-checker/internal/common/config"
	"symptom-checker/internal/common/database"
	"symptom-checker/internal/common/inference"
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/observability"
	"symptom-checker/internal/session"
	"symptom-checker/internal/session/autocomplete"
)

// app holds the process-wide collaborators shared by every subcommand.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	obs    *observability.Observability
	client *inference.Client
	source autocomplete.Source
	redis  *database.RedisClient
}

func newApp(ctx context.Context, configPath, logLevel string) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format).With(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	a := &app{
		cfg: cfg,
		log: log,
		obs: observability.New(cfg.App.Name, log),
	}

	a.client, err = inference.NewClient(inference.LoadConfig(cfg.Inference), a.obs, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("inference client: %w", err)
	}
	a.source = a.client

	if cfg.Cache.Enabled {
		a.redis, err = database.NewRedis(cfg.Cache.Redis)
		if err == nil {
			err = a.redis.Ping(ctx)
		}
		if err != nil {
			// Suggestions still work uncached.
			log.Warn("Suggestion cache unavailable", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
				"error":   err.Error(),
			})
			if a.redis != nil {
				_ = a.redis.Close()
				a.redis = nil
			}
		} else {
			a.source = autocomplete.NewCachedSource(a.client, a.redis, cfg.Cache.TTLDuration(), log)
			log.Info("Suggestion cache enabled", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
				"ttl":     cfg.Cache.TTLDuration().String(),
			})
		}
	}

	return a, nil
}

// checkHealth logs the inference service status. The session starts either way.
func (a *app) checkHealth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status, err := a.client.Health(ctx)
	if err != nil {
		a.log.Warn("Inference service unreachable", map[string]interface{}{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{
		"api":        status.API,
		"graphStore": status.Neo4j,
	}
	if !status.Healthy() {
		a.log.Warn("Inference service degraded", fields)
		return
	}
	a.log.Info("Inference service healthy", fields)
}

func (a *app) newSession() *session.Controller {
	return session.New(session.LoadConfig(a.cfg), a.source, a.client, a.log)
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Error closing redis", map[string]interface{}{"error": err.Error()})
		}
	}
	a.obs.Shutdown()
}

// serveMetrics exposes /metrics and /health until ctx is done. An empty
// address disables the server.
func (a *app) serveMetrics(ctx context.Context) error {
	addr := a.cfg.Metrics.Address
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"breaker": a.client.BreakerState(),
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Metrics server listening", map[string]interface{}{"address": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		// A busy port should not take the session down with it.
		a.log.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
