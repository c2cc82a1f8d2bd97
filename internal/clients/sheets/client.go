// Package sheets provides a client for published fund-sheet CSV documents
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/roshan4665/fundfolio/internal/common"
	"github.com/roshan4665/fundfolio/internal/models"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the SheetsClient interface
type Client struct {
	defaultPortfolioURL string
	httpClient          *http.Client
	logger              *common.Logger
	limiter             *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client (used by tests)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new sheets client. defaultPortfolioURL may be empty
// when no published default portfolio is configured.
func NewClient(defaultPortfolioURL string, opts ...ClientOption) *Client {
	c := &Client{
		defaultPortfolioURL: defaultPortfolioURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-success response from a sheet host
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sheet fetch error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request and returns the raw body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	c.logger.Debug().Str("url", url).Msg("Sheet fetch")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Endpoint:   url,
		}
	}

	return body, nil
}

// FetchSheet retrieves one raw CSV document. An empty body is returned
// as-is — zero records is not a transport failure.
func (c *Client) FetchSheet(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchDefaultPortfolio retrieves the published default-portfolio document.
// A malformed document degrades to an empty portfolio rather than an error,
// keeping first-run startup functional with degraded data.
func (c *Client) FetchDefaultPortfolio(ctx context.Context) ([]models.PortfolioHolding, error) {
	if c.defaultPortfolioURL == "" {
		return nil, nil
	}

	body, err := c.get(ctx, c.defaultPortfolioURL)
	if err != nil {
		return nil, err
	}

	var holdings []models.PortfolioHolding
	if err := json.Unmarshal(body, &holdings); err != nil {
		c.logger.Warn().Err(err).
			Str("url", c.defaultPortfolioURL).
			Msg("Default portfolio document malformed, treating as empty")
		return nil, nil
	}

	// Drop entries that violate the holding invariants instead of failing
	// the whole document.
	valid := holdings[:0]
	for _, h := range holdings {
		if h.Fund.ID == "" || h.Fund.Name == "" || h.WeeklyInvestment < 0 {
			c.logger.Warn().Str("fund", h.Fund.Name).Msg("Skipping invalid default-portfolio entry")
			continue
		}
		valid = append(valid, h)
	}
	return valid, nil
}
