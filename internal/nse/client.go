// Package nse provides the HTTP client for the exchange pages the screener
// reads: the index stock watch, per-stock price history, per-stock option
// chains, and the lot-size reference table.
package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Default endpoints
const (
	DefaultIndexURL       = "https://www.nseindia.com/live_market/dynaContent/live_watch/stock_watch/niftyStockWatch.json"
	DefaultHistoryURL     = "https://www.nseindia.com/live_market/dynaContent/live_watch/get_quote/getHistoricalData.jsp"
	DefaultOptionChainURL = "https://www.nseindia.com/live_market/dynaContent/live_watch/option_chain/optionKeys.jsp"
	DefaultLotSizeURL     = "https://www.niftytrader.in/technical-school/nse-fo-lot-size/"
)

// Default page layout
const (
	DefaultOptionTableID  = "octable"
	DefaultLotSizeTableID = "tablepress-24"
	DefaultAnchorClass    = "grybg"
	DefaultCellClass      = "nobg"
)

// Request defaults
const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "downtrend-puts/1.0"
)

const (
	maxBodyBytes  = 8 << 20
	maxErrorBytes = 64 << 10
)

// APIError represents a non-success HTTP response with its status code and body
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// Endpoints are the URLs of the four pages the client reads.
type Endpoints struct {
	IndexURL       string
	HistoryURL     string
	OptionChainURL string
	LotSizeURL     string
}

// DefaultEndpoints returns the live exchange URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		IndexURL:       DefaultIndexURL,
		HistoryURL:     DefaultHistoryURL,
		OptionChainURL: DefaultOptionChainURL,
		LotSizeURL:     DefaultLotSizeURL,
	}
}

// Layout names the HTML hooks used to find tables and cells.
type Layout struct {
	OptionTableID  string
	LotSizeTableID string
	AnchorClass    string // strike column
	CellClass      string // data columns on either side of the strike
}

// DefaultLayout returns the hooks used by the live pages.
func DefaultLayout() Layout {
	return Layout{
		OptionTableID:  DefaultOptionTableID,
		LotSizeTableID: DefaultLotSizeTableID,
		AnchorClass:    DefaultAnchorClass,
		CellClass:      DefaultCellClass,
	}
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Endpoints Endpoints
	Layout    Layout
	Timeout   time.Duration
	UserAgent string
	// CacheTTL keeps fetched documents in memory for repeated reads within a
	// process. Zero disables caching.
	CacheTTL time.Duration
	// Logger receives transport warnings. Nil uses the logrus standard logger.
	Logger logrus.FieldLogger
}

// Client fetches and parses exchange pages.
type Client struct {
	client    *http.Client
	endpoints Endpoints
	layout    Layout
	userAgent string
	timeout   time.Duration
	cache     *cache.Cache
	logger    logrus.FieldLogger
}

// NewClient creates a Client with opts applied over the defaults.
func NewClient(opts Options) *Client {
	return NewClientWithHTTPClient(opts, nil)
}

// NewClientWithHTTPClient creates a Client using a custom HTTP client. The
// client is used as given and never modified; the per-request deadline comes
// from opts.Timeout.
func NewClientWithHTTPClient(opts Options, client *http.Client) *Client {
	endpoints := DefaultEndpoints()
	if opts.Endpoints.IndexURL != "" {
		endpoints.IndexURL = opts.Endpoints.IndexURL
	}
	if opts.Endpoints.HistoryURL != "" {
		endpoints.HistoryURL = opts.Endpoints.HistoryURL
	}
	if opts.Endpoints.OptionChainURL != "" {
		endpoints.OptionChainURL = opts.Endpoints.OptionChainURL
	}
	if opts.Endpoints.LotSizeURL != "" {
		endpoints.LotSizeURL = opts.Endpoints.LotSizeURL
	}

	layout := DefaultLayout()
	if opts.Layout.OptionTableID != "" {
		layout.OptionTableID = opts.Layout.OptionTableID
	}
	if opts.Layout.LotSizeTableID != "" {
		layout.LotSizeTableID = opts.Layout.LotSizeTableID
	}
	if opts.Layout.AnchorClass != "" {
		layout.AnchorClass = opts.Layout.AnchorClass
	}
	if opts.Layout.CellClass != "" {
		layout.CellClass = opts.Layout.CellClass
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	c := &Client{
		client:    client,
		endpoints: endpoints,
		layout:    layout,
		userAgent: userAgent,
		timeout:   timeout,
		logger:    opts.Logger,
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c
}

// WithTimeout sets the per-request deadline.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// Endpoints returns the URLs the client reads.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// get fetches rawURL with params and returns the body. Successful bodies are
// cached by full URL when caching is enabled.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values, accept string) ([]byte, error) {
	endpoint := rawURL
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parsing url %q: %w", rawURL, err)
		}
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(endpoint); ok {
			return body.([]byte), nil
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", accept)
	req.Header.Add("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).WithField("url", endpoint).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		if err != nil {
			return nil, &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("GET %s -> failed to read error body", endpoint)}
		}
		ct := resp.Header.Get("Content-Type")
		return nil, &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("GET %s (%s) -> %s", endpoint, ct, string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", endpoint, err)
	}
	if c.cache != nil {
		c.cache.Set(endpoint, body, cache.DefaultExpiration)
	}
	return body, nil
}
