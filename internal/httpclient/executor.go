package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/coinpulse/market-etl/internal/rate"
)

// Executor handles rate-limited HTTP execution with JSON decoding.
// It performs exactly one attempt per call: failures surface to the
// caller and are never retried here.
type Executor struct {
	logger    *zap.Logger
	rateMgr   *rate.Manager
	http      *http.Client
	sourceTag string
}

// New creates an Executor. sourceTag prefixes log events (e.g. "coingecko").
func New(logger *zap.Logger, rateMgr *rate.Manager, httpClient *http.Client, sourceTag string) *Executor {
	return &Executor{
		logger:    logger,
		rateMgr:   rateMgr,
		http:      httpClient,
		sourceTag: sourceTag,
	}
}

// DoJSON executes req with rate limiting, then JSON-decodes the response into out.
// rateLimitKey scopes the rate limiter per endpoint/source.
func (e *Executor) DoJSON(ctx context.Context, req *http.Request, rateLimitKey string, out any) error {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		e.logger.Warn(e.sourceTag+".http_failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.logger.Warn(e.sourceTag+".non_2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("url", req.URL.String()),
			zap.Duration("latency", elapsed))
		return fmt.Errorf("%s returned %d", e.sourceTag, resp.StatusCode)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			e.logger.Warn(e.sourceTag+".decode_failed",
				zap.Error(err),
				zap.String("url", req.URL.String()))
			return fmt.Errorf("decode failed: %w", err)
		}
	}

	e.logger.Debug(e.sourceTag+".http_success",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	return nil
}
