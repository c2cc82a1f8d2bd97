// Package jsonbin provides a client for the remote portfolio bin endpoint
package jsonbin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roshan4665/fundfolio/internal/common"
	"github.com/roshan4665/fundfolio/internal/interfaces"
	"github.com/roshan4665/fundfolio/internal/models"
)

const DefaultBaseURL = "https://api.jsonbin.io/v3"

const DefaultTimeout = 15 * time.Second

// Client implements the BinClient interface against a JSONBin-style API:
// GET returns the whole stored array, PUT overwrites it wholesale.
type Client struct {
	baseURL    string
	binID      string
	masterKey  string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new bin client. An empty binID disables the client;
// Enabled reports false and Get/Put become no-ops for callers that check it.
func NewClient(binID, masterKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		binID:     binID,
		masterKey: masterKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Enabled reports whether a remote bin is configured.
func (c *Client) Enabled() bool {
	return c.binID != ""
}

// APIError represents a non-success response from the bin endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bin API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// binEnvelope is the wire wrapper around the stored record.
type binEnvelope struct {
	Record json.RawMessage `json:"record"`
}

// Get returns the stored holdings array. A missing bin maps to
// ErrBinNotFound; a malformed stored document is treated as absent.
func (c *Client) Get(ctx context.Context) ([]models.PortfolioHolding, error) {
	if !c.Enabled() {
		return nil, interfaces.ErrBinNotFound
	}

	endpoint := fmt.Sprintf("%s/b/%s/latest", c.baseURL, c.binID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrBinNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	var envelope binEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		c.logger.Warn().Err(err).Msg("Bin response malformed, treating as absent")
		return nil, interfaces.ErrBinNotFound
	}

	var holdings []models.PortfolioHolding
	if err := json.Unmarshal(envelope.Record, &holdings); err != nil {
		c.logger.Warn().Err(err).Msg("Stored portfolio malformed, treating as absent")
		return nil, interfaces.ErrBinNotFound
	}
	return holdings, nil
}

// Put overwrites the entire stored document with the given holdings.
func (c *Client) Put(ctx context.Context, holdings []models.PortfolioHolding) error {
	if !c.Enabled() {
		return nil
	}

	if holdings == nil {
		holdings = []models.PortfolioHolding{}
	}
	payload, err := json.Marshal(holdings)
	if err != nil {
		return fmt.Errorf("failed to encode portfolio: %w", err)
	}

	endpoint := fmt.Sprintf("%s/b/%s", c.baseURL, c.binID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Int("holdings", len(holdings)).Msg("Persisting portfolio to bin")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.masterKey != "" {
		req.Header.Set("X-Master-Key", c.masterKey)
	}
}
