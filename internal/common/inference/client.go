// Package inference is the typed client for the remote symptom inference service.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	commonerrors "symptom-checker/internal/common/errors"
	commonhttp "symptom-checker/internal/common/http"
	"symptom-checker/internal/common/logger"
	"symptom-checker/internal/common/observability"
	"symptom-checker/internal/common/validation"
	"symptom-checker/internal/models"
	"symptom-checker/pkg/registry"
)

var (
	ErrTransport        = errors.New("inference transport failed")
	ErrUnexpectedStatus = errors.New("inference unexpected status")
	ErrInvalidResponse  = errors.New("inference invalid response")
	ErrInvalidRequest   = errors.New("inference invalid request")
)

const maxResponseBytes = 4 << 20

type Client struct {
	config    *Config
	http      *commonhttp.Client
	endpoints map[string]registry.Endpoint
	schemas   map[string]*validation.Schema
	validate  *validator.Validate
	obs       *observability.Observability
	logger    logger.Logger
}

// NewClient builds a client from cfg. obs may be nil.
func NewClient(cfg *Config, obs *observability.Observability, log logger.Logger) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("inference base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid inference base URL: %w", err)
	}

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load endpoint registry: %w", err)
	}

	log = logger.OrNop(log).With(map[string]interface{}{"component": "inference-client"})

	c := &Client{
		config:    cfg,
		http:      commonhttp.NewClient(cfg.Timeout, cfg.Breaker, log),
		endpoints: make(map[string]registry.Endpoint, len(reg.Endpoints)),
		schemas:   make(map[string]*validation.Schema, len(reg.Endpoints)),
		validate:  validator.New(),
		obs:       obs,
		logger:    log,
	}

	for _, ep := range reg.Endpoints {
		c.endpoints[ep.ID] = ep
		if len(ep.ResponseSchema) == 0 {
			continue
		}
		schema, err := validation.Compile(ep.ResponseSchema)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.ID, err)
		}
		c.schemas[ep.ID] = schema
	}

	return c, nil
}

// Autocomplete returns storage-form suggestions for a storage-form prefix,
// in the order the service returned them.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)

	var out models.SuggestionsResponse
	if err := c.call(ctx, registry.EndpointAutocomplete, "", params, nil, &out); err != nil {
		return nil, err
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	return out.Suggestions, nil
}

func (c *Client) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var out models.AnalyzeResponse
	if err := c.call(ctx, registry.EndpointAnalyze, "", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecommendDoctors lists doctors for disease. The records are passed through uninterpreted.
func (c *Client) RecommendDoctors(ctx context.Context, disease string) (*models.DoctorResponse, error) {
	if strings.TrimSpace(disease) == "" {
		return nil, fmt.Errorf("%w: disease is required", ErrInvalidRequest)
	}

	var out models.DoctorResponse
	if err := c.call(ctx, registry.EndpointDoctors, "/"+url.PathEscape(disease), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	if err := c.call(ctx, registry.EndpointHealth, "", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() string {
	return c.http.State()
}

func (c *Client) buildURL(ep registry.Endpoint, suffix string, params url.Values) string {
	u := strings.TrimRight(c.config.BaseURL, "/") + ep.Path + suffix
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// call performs one round trip and decodes the validated body into dest.
func (c *Client) call(ctx context.Context, endpointID, suffix string, params url.Values, body interface{}, dest interface{}) (err error) {
	ep, ok := c.endpoints[endpointID]
	if !ok {
		return fmt.Errorf("unknown endpoint %q", endpointID)
	}

	ctx, span := c.obs.StartSpan(ctx, endpointID)
	start := time.Now()
	status := "ok"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		c.obs.RecordRequest(ctx, endpointID, status, time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			status = "encode_error"
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		reader = bytes.NewReader(payload)
	}

	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(ep, suffix, params), reader)
	if err != nil {
		status = "request_error"
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		status = "transport_error"
		c.logger.Warn("Inference request failed", map[string]interface{}{
			"endpoint": endpointID,
			"error":    err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrTransport, commonerrors.NewServiceUnavailableError("inference", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		status = strconv.Itoa(resp.StatusCode)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: %w", ErrUnexpectedStatus, commonerrors.NewUnexpectedStatusError(endpointID, resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		status = "transport_error"
		return fmt.Errorf("%w: %w", ErrTransport, commonerrors.NewServiceUnavailableError("inference", err))
	}

	if schema, ok := c.schemas[endpointID]; ok {
		result, err := schema.ValidateBytes(raw)
		if err != nil {
			status = "invalid_response"
			return fmt.Errorf("%w: %w", ErrInvalidResponse, commonerrors.NewInvalidResponseError(endpointID, err.Error()))
		}
		if !result.Valid {
			status = "invalid_response"
			details := strings.Join(result.GetErrorMessages(), "; ")
			c.logger.Warn("Inference response failed schema validation", map[string]interface{}{
				"endpoint": endpointID,
				"errors":   details,
			})
			return fmt.Errorf("%w: %w", ErrInvalidResponse, commonerrors.NewInvalidResponseError(endpointID, details))
		}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		status = "invalid_response"
		return fmt.Errorf("%w: %w", ErrInvalidResponse, commonerrors.NewInvalidResponseError(endpointID, err.Error()))
	}

	return nil
}
