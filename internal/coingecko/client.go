package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/coinpulse/market-etl/internal/httpclient"
	"github.com/coinpulse/market-etl/internal/rate"
)

const rateLimitKey = "coingecko_api"

// Query fixes the markets-listing parameters for one client instance.
type Query struct {
	VsCurrency string // e.g. "usd"
	Order      string // e.g. "market_cap_desc"
	PerPage    int
	Page       int
}

// Client wraps HTTP communication with the CoinGecko public API.
// The public tier rate-limits aggressively, so calls go through a
// token-bucket limiter; failed calls are never retried.
type Client struct {
	logger  *zap.Logger
	baseURL string
	query   Query
	exec    *httpclient.Executor
}

// NewClient constructs a CoinGecko client with a fixed request timeout.
func NewClient(logger *zap.Logger, baseURL string, query Query, rateMgr *rate.Manager, timeout time.Duration) *Client {
	exec := httpclient.New(logger, rateMgr, &http.Client{Timeout: timeout}, "coingecko")
	return &Client{
		logger:  logger,
		baseURL: baseURL,
		query:   query,
		exec:    exec,
	}
}

// FetchMarkets issues one GET against /coins/markets and returns the raw
// records. Network failure, non-2xx status, and malformed bodies all
// surface as an *ExtractionError carrying the cause.
func (c *Client) FetchMarkets(ctx context.Context) ([]MarketRecord, error) {
	q := url.Values{}
	q.Set("vs_currency", c.query.VsCurrency)
	q.Set("order", c.query.Order)
	q.Set("per_page", strconv.Itoa(c.query.PerPage))
	q.Set("page", strconv.Itoa(c.query.Page))
	q.Set("sparkline", "false")

	endpoint := fmt.Sprintf("%s/coins/markets?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var records []MarketRecord
	if err := c.exec.DoJSON(ctx, req, rateLimitKey, &records); err != nil {
		return nil, &ExtractionError{Err: err}
	}

	c.logger.Info("coingecko.fetch_complete", zap.Int("records", len(records)))
	return records, nil
}
