package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Run log statuses written to pipeline_logs.
const (
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// Snapshot is the canonical, normalized form of one asset's market data.
// PriceINR is always derived from PriceUSD via the configured conversion
// rate; there is no independent source of truth for it.
type Snapshot struct {
	CoinID      string          `json:"coin_id"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	PriceINR    decimal.Decimal `json:"price_inr"`
	MarketCap   decimal.Decimal `json:"market_cap"`
	LastUpdated *time.Time      `json:"last_updated,omitempty"` // source-reported, nullable
	FetchedAt   time.Time       `json:"fetched_at"`             // server-side, refreshed on every upsert
}

// RunLog is one row of the append-only pipeline audit trail.
type RunLog struct {
	ID               int64     `json:"id"`
	Status           string    `json:"status"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	RecordsProcessed int       `json:"records_processed"`
	CreatedAt        time.Time `json:"created_at"`
}
