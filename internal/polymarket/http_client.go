package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikeluck/polymarket-copy-trading-bot/internal/domain"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/idhash"
	"github.com/mikeluck/polymarket-copy-trading-bot/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://data-api.polymarket.com"
	DefaultTimeout    = 10 * time.Second
	DefaultUserAgent  = "Mozilla/5.0 (compatible; polymarket-copy-sim/1.0)"
	DefaultMaxRetries = 0
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// maxErrorBody bounds the response body kept in a StatusError.
const maxErrorBody = 512

// HTTPClient implements DataClient over the public data API.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithMaxRetries sets maximum retry attempts for rate-limited or failed
// requests. The default is no retries.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// NewHTTPClient creates a data API client. An empty baseURL uses DefaultBaseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activity returns one page of TRADE activity for address.
func (c *HTTPClient) Activity(ctx context.Context, address string, limit, offset int) ([]domain.Trade, error) {
	q := url.Values{}
	q.Set("user", address)
	q.Set("type", "TRADE")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var raw []rawActivity
	if err := c.get(ctx, "activity", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch activity offset=%d: %w", offset, err)
	}

	trades := make([]domain.Trade, 0, len(raw))
	for i := range raw {
		trades = append(trades, raw[i].toTrade())
	}
	return trades, nil
}

// Positions returns the live positions for address.
func (c *HTTPClient) Positions(ctx context.Context, address string) ([]domain.LivePosition, error) {
	q := url.Values{}
	q.Set("user", address)

	var positions []domain.LivePosition
	if err := c.get(ctx, "positions", q, &positions); err != nil {
		return nil, fmt.Errorf("fetch positions: %w", err)
	}
	return positions, nil
}

// get performs a GET on endpoint and decodes the JSON body into result.
func (c *HTTPClient) get(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	u := c.baseURL + "/" + endpoint + "?" + query.Encode()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		start := time.Now()
		err := c.do(ctx, u, result)
		observability.RecordAPIRequest(endpoint, time.Since(start).Seconds(), err)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		lastErr = err
	}

	if c.maxRetries > 0 {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return lastErr
}

func (c *HTTPClient) do(ctx context.Context, u string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// rawActivity is one element of the activity endpoint response.
type rawActivity struct {
	ID              string  `json:"id"`
	Timestamp       int64   `json:"timestamp"`
	ConditionID     string  `json:"conditionId"`
	Slug            string  `json:"slug"`
	Market          string  `json:"market"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	Price           float64 `json:"price"`
	USDCSize        float64 `json:"usdcSize"`
	Size            float64 `json:"size"`
	Outcome         string  `json:"outcome"`
	TransactionHash string  `json:"transactionHash"`
}

// toTrade maps the raw record. Market prefers slug, then market, then
// condition id. Records without an id get a content hash over the
// transaction hash and fill fields, stable across pages.
func (r *rawActivity) toTrade() domain.Trade {
	market := r.Slug
	if market == "" {
		market = r.Market
	}
	if market == "" {
		market = r.ConditionID
	}

	outcome := r.Outcome
	if outcome == "" {
		outcome = domain.UnknownOutcome
	}

	side := domain.Side(strings.ToUpper(r.Side))

	id := r.ID
	if id == "" {
		id = idhash.ComputeActivityID(r.TransactionHash, r.Asset, string(side), r.Timestamp, r.Size, r.Price)
	}

	return domain.Trade{
		ID:        id,
		Timestamp: r.Timestamp,
		Market:    market,
		Asset:     r.Asset,
		Side:      side,
		Price:     r.Price,
		USDCSize:  r.USDCSize,
		Size:      r.Size,
		Outcome:   outcome,
	}
}

// Compile-time interface check.
var _ DataClient = (*HTTPClient)(nil)
