package autocomplete

import (
	"context"
	"errors"
	"time"

	"symptom-checker/internal/common/database"
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/metrics"
)

const cacheKeyPrefix = "symptom:autocomplete:"

// CachedSource serves repeated prefixes from redis. Cache failures fall
// through to the wrapped source; source errors are never cached.
type CachedSource struct {
	source Source
	cache  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(source Source, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger.OrNop(log).With(map[string]interface{}{"component": "suggestion-cache"}),
	}
}

func (c *CachedSource) Autocomplete(ctx context.Context, query string) ([]string, error) {
	key := cacheKeyPrefix + query

	var cached []string
	err := c.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.SuggestionCache.WithLabelValues(metrics.CacheHit).Inc()
		return cached, nil
	case errors.Is(err, database.ErrCacheMiss):
		metrics.SuggestionCache.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.SuggestionCache.WithLabelValues(metrics.CacheError).Inc()
		c.logger.Warn("Suggestion cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	tokens, err := c.source.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, tokens, c.ttl); err != nil {
		c.logger.Warn("Suggestion cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return tokens, nil
}
