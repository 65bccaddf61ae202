package repository

import (
	"context"
	"errors"

	"github.com/kjannette/goldprice-backend/internal/models"
)

// ErrStore wraps every insert or query failure from a PriceStore.
var ErrStore = errors.New("price store")

// PriceStore is the append-only gold price table.
type PriceStore interface {
	Insert(ctx context.Context, s models.PriceSample) error
	// DailyMinima returns one row per date, newest date first. A nil days
	// means no date filter.
	DailyMinima(ctx context.Context, days *int) ([]models.DailyMinimum, error)
	// Latest returns nil, nil when the table is empty.
	Latest(ctx context.Context) (*models.PriceSample, error)
}
