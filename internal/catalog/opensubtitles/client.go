// Package opensubtitles implements catalog.Catalog against the OpenSubtitles
// REST API.
package opensubtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"subfetch/internal/catalog"
	"subfetch/internal/logging"
)

const (
	defaultBaseURL     = "https://api.opensubtitles.com/api/v1"
	defaultUserAgent   = "subfetch v1.0"
	defaultHTTPTimeout = 45 * time.Second
)

// Config describes the OpenSubtitles client configuration.
type Config struct {
	APIKey     string
	UserAgent  string
	BaseURL    string
	HTTPClient *http.Client

	// Limiter paces every API request. Nil allows one request per MinInterval.
	Limiter *rate.Limiter
	// Clock drives retry backoff. Nil uses the real clock.
	Clock clockwork.Clock
	// MaxRetries bounds retries of transient failures. Zero uses
	// MaxRateRetries; negative disables retries.
	MaxRetries int
	Logger     *slog.Logger
}

// Client wraps the OpenSubtitles REST API. It is safe for concurrent use.
type Client struct {
	apiKey     string
	userAgent  string
	baseURL    *url.URL
	http       *http.Client
	limiter    *rate.Limiter
	clock      clockwork.Clock
	maxRetries int
	logger     *slog.Logger

	mu        sync.RWMutex
	userToken string
}

var _ catalog.Catalog = (*Client)(nil)

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("opensubtitles: api key is required")
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(MinInterval), 1)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	retries := cfg.MaxRetries
	switch {
	case retries == 0:
		retries = MaxRateRetries
	case retries < 0:
		retries = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		apiKey:     apiKey,
		userAgent:  userAgent,
		baseURL:    baseURL,
		http:       client,
		limiter:    limiter,
		clock:      clock,
		maxRetries: retries,
		logger:     logger.With(logging.String(logging.FieldComponent, "opensubtitles")),
	}, nil
}

// apiError is a non-2xx API response.
type apiError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *apiError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("opensubtitles: %s failed (%s)", e.Op, e.Status)
	}
	return fmt.Sprintf("opensubtitles: %s failed (%s): %s", e.Op, e.Status, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userToken
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.userToken = token
	c.mu.Unlock()
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// call performs one API round trip with pacing and transient-failure retries.
// body is JSON-encoded when non-nil; out receives the decoded response when
// non-nil.
func (c *Client) call(ctx context.Context, op, method string, endpoint *url.URL, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("opensubtitles: encode %s request: %w", op, err)
		}
		payload = encoded
	}

	backoff := InitialBackoff
	for attempt := 0; ; attempt++ {
		err := c.roundTrip(ctx, op, method, endpoint, payload, out)
		if err == nil || attempt >= c.maxRetries || !IsRetriable(err) || ctx.Err() != nil {
			return err
		}
		c.logger.Debug("opensubtitles request retry",
			logging.String(logging.FieldEventType, "catalog_retry"),
			logging.String("op", op),
			logging.Int("attempt", attempt+1),
			logging.Duration("backoff", backoff),
			logging.Error(err),
		)
		if err := SleepWithContext(ctx, c.clock, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, MaxBackoff)
	}
}

func (c *Client) roundTrip(ctx context.Context, op, method string, endpoint *url.URL, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("opensubtitles: rate limit wait: %w", err)
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("opensubtitles: build %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("opensubtitles: %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("opensubtitles: decode %s response: %w", op, err)
	}
	return nil
}
