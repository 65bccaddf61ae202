package models

import "github.com/shopspring/decimal"

// PriceSample is one recorded gold quote. Samples are append-only.
type PriceSample struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"` // epoch millis
	Date      string          `json:"date"`      // YYYY-MM-DD, UTC
}

// DailyMinimum is the lowest price observed among all samples of one date.
type DailyMinimum struct {
	Date  string          `json:"date"`
	Price decimal.Decimal `json:"price"`
}
