// Package chart reshapes stored price rows into the parallel-array form the
// dashboard chart consumes.
package chart

import (
	"encoding/json"

	"github.com/kjannette/goldprice-backend/internal/models"
)

type Series struct {
	Dates  []string      `json:"dates"`
	Prices []json.Number `json:"prices"`
}

// FromMinima maps daily minima (newest first, as the store returns them)
// into oldest-first parallel arrays so the chart's x axis runs left to
// right. The /api/gold-prices list keeps the store's newest-first order.
// Index i of Dates pairs with index i of Prices.
func FromMinima(rows []models.DailyMinimum) Series {
	s := Series{
		Dates:  make([]string, len(rows)),
		Prices: make([]json.Number, len(rows)),
	}
	for i, m := range rows {
		j := len(rows) - 1 - i
		s.Dates[j] = m.Date
		s.Prices[j] = json.Number(m.Price.String())
	}
	return s
}
