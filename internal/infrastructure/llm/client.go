// Package llm implements a confirmation oracle backed by an OpenAI-compatible
// chat completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricelens/backend/internal/domain"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
)

// Config holds the oracle client settings
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond limits outgoing calls; borderline pairs can be numerous
	RequestsPerSecond float64
	Burst             int
}

// Client asks a language model whether two listings are the same product
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	maxAttempts int
	backoffBase time.Duration
	debug       bool
}

// NewClient creates a new oracle client
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      config.APIKey,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
}

// SetDebug enables request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Confirm asks the model whether a and b denote the same physical product
func (c *Client) Confirm(ctx context.Context, a, b domain.CatalogEntry) (domain.Confirmation, error) {
	body, err := json.Marshal(buildRequest(c.model, a, b))
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return domain.Confirmation{}, fmt.Errorf("rate limiter error: %w", err)
		}

		status, respBody, err := c.doRequest(ctx, endpoint, body)
		if err != nil {
			log.Printf("[ORACLE] Request error (attempt %d): %v", attempt, err)
			lastErr = err
		} else if status == http.StatusOK {
			var resp chatResponse
			if err := json.Unmarshal(respBody, &resp); err != nil {
				return domain.Confirmation{}, fmt.Errorf("%w: failed to decode response: %v", domain.ErrOracleFailure, err)
			}
			confirmation, err := parseConfirmation(resp)
			if err != nil {
				return domain.Confirmation{}, err
			}
			if c.debug {
				log.Printf("[ORACLE] %q ↔ %q → %+v", a.Name, b.Name, confirmation)
			}
			return confirmation, nil
		} else {
			log.Printf("[ORACLE] API error (attempt %d) - Status: %d, Body: %s", attempt, status, string(respBody))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrOracleFailure, status)
			// Client errors other than rate limiting will not succeed on retry
			if status != http.StatusTooManyRequests && status < 500 {
				return domain.Confirmation{}, lastErr
			}
		}

		if attempt < c.maxAttempts {
			if err := sleepContext(ctx, exponentialBackoff(c.backoffBase, attempt)); err != nil {
				return domain.Confirmation{}, err
			}
		}
	}

	return domain.Confirmation{}, lastErr
}

// doRequest executes one POST and returns the status code and body
func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PriceLens/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrOracleFailure, err)
	}

	return resp.StatusCode, respBody, nil
}

// exponentialBackoff returns base doubled for each attempt after the first
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
