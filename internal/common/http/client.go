package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"symptom-checker/internal/common/logger"
)

// ErrCircuitOpen is returned when the breaker rejects a request without sending it.
var ErrCircuitOpen = errors.New("circuit breaker open")

var errServerStatus = errors.New("server error status")

// BreakerSettings holds configuration for the circuit breaker guarding the client.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns the breaker configuration used when none is given.
func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     logger.Logger
}

// NewClient builds a client. A zero timeout means no client-side timeout.
func NewClient(timeout time.Duration, settings BreakerSettings, log logger.Logger) *Client {
	log = logger.OrNop(log).With(map[string]interface{}{"component": "http-client", "breaker": settings.Name})
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: cb,
		logger:  log,
	}
}

// Do sends req through the breaker. 5xx responses are returned to the caller
// but count as breaker failures.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("Request rejected by circuit breaker", map[string]interface{}{
			"method": req.Method,
			"path":   req.URL.Path,
		})
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case errors.Is(err, errServerStatus):
		return result.(*http.Response), nil
	case err != nil:
		return nil, err
	}
	return result.(*http.Response), nil
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}

// State reports the breaker state, e.g. "closed" or "open".
func (c *Client) State() string {
	return c.breaker.State().String()
}
