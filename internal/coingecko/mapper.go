package coingecko

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinpulse/market-etl/pkg/model"
)

// MapSnapshots normalizes raw market records into canonical snapshots,
// one-to-one and order-preserving. The INR price is derived from the USD
// price via rate and rounded to 2 decimal places; a missing price counts
// as zero. A record missing id, symbol, or name aborts the whole batch.
// Pure function: no I/O, deterministic given input.
func MapSnapshots(raw []MarketRecord, rate decimal.Decimal) ([]model.Snapshot, error) {
	snapshots := make([]model.Snapshot, 0, len(raw))

	for i, item := range raw {
		switch {
		case item.ID == "":
			return nil, &TransformationError{Index: i, Field: "id"}
		case item.Symbol == "":
			return nil, &TransformationError{Index: i, Field: "symbol"}
		case item.Name == "":
			return nil, &TransformationError{Index: i, Field: "name"}
		}

		snapshots = append(snapshots, model.Snapshot{
			CoinID:      item.ID,
			Symbol:      strings.ToUpper(item.Symbol),
			Name:        item.Name,
			PriceUSD:    item.CurrentPrice,
			PriceINR:    item.CurrentPrice.Mul(rate).Round(2),
			MarketCap:   item.MarketCap,
			LastUpdated: parseTimestamp(item.LastUpdated),
		})
	}

	return snapshots, nil
}

// parseTimestamp converts the source's ISO-8601 string to a time; absent
// or unparseable values map to nil (the column is nullable).
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
