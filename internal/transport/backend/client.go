// Package backend is the HTTP client for the search backend: streamed search,
// streamed query validation and the admin REST resources.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchdeck/internal/domain"
	"github.com/kailas-cloud/searchdeck/internal/metrics"
)

// Endpoint labels used in metrics.
const (
	endpointSearch     = "search"
	endpointValidation = "validation"
	endpointREST       = "rest"
	endpointHealth     = "health"
)

const (
	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of a failed response is kept as FetchError.Info.
	maxErrorBody = 64 << 10
)

// Config holds the backend client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client // optional; streams must not use a client-wide timeout
	Logger     *zap.Logger
}

// Client talks to the search backend.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    hc,
		logger:  logger,
	}, nil
}

// GetJSON fetches path and decodes the JSON body into out.
// Every failure is a *domain.FetchError.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, endpointREST, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewFetchError(resp.StatusCode, nil,
			fmt.Errorf("%w: decode %s: %w", domain.ErrMalformedPayload, path, err))
	}
	return nil
}

// HealthCheck reports whether the backend answers its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.do(ctx, endpointHealth, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// do sends a request and returns the response for 2xx statuses only.
// The caller closes the body.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, domain.NewFetchError(0, nil,
				fmt.Errorf("%w: encode request: %w", domain.ErrInvalidRequest, err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, domain.NewFetchError(0, nil,
			fmt.Errorf("%w: build request: %w", domain.ErrInvalidRequest, err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		if errors.Is(err, context.Canceled) {
			return nil, domain.NewFetchError(0, nil, fmt.Errorf("%w: %w", domain.ErrCancelled, err))
		}
		c.logger.Warn("backend request failed",
			zap.String("endpoint", endpoint),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, domain.NewFetchError(0, nil, fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, method, path, err))
	}

	metrics.BackendRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		info, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		c.logger.Warn("backend returned error status",
			zap.String("endpoint", endpoint),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, domain.NewFetchError(resp.StatusCode, info,
			fmt.Errorf("%w: %s %s", statusSentinel(resp.StatusCode), method, path))
	}

	return resp, nil
}

func statusSentinel(status int) error {
	switch status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	default:
		return domain.ErrBackend
	}
}
