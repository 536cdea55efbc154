package coingecko

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MarketRecord is one item of the /coins/markets response. Numeric fields
// decode into decimal so price arithmetic stays exact; JSON null leaves
// them at zero.
type MarketRecord struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketCap    decimal.Decimal `json:"market_cap"`
	LastUpdated  string          `json:"last_updated"`
}

// ExtractionError wraps any failure to fetch or decode the markets response.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TransformationError reports a raw record missing a required field.
// The whole batch aborts; there is no partial-success mode.
type TransformationError struct {
	Index int
	Field string
}

func (e *TransformationError) Error() string {
	return fmt.Sprintf("transformation failed: record %d is missing required field %q", e.Index, e.Field)
}
