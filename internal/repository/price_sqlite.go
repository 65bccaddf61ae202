package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kjannette/goldprice-backend/internal/models"
)

// SQLitePriceRepo is the single-file PriceStore used for local runs and tests.
type SQLitePriceRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLitePriceRepo(db *sql.DB) *SQLitePriceRepo {
	return &SQLitePriceRepo{db: db, now: time.Now}
}

func (r *SQLitePriceRepo) Insert(ctx context.Context, s models.PriceSample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gold_prices (price, timestamp, date) VALUES (?, ?, ?)`,
		s.Price.String(), s.Timestamp, s.Date,
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %w", ErrStore, err)
	}
	return nil
}

func (r *SQLitePriceRepo) DailyMinima(ctx context.Context, days *int) ([]models.DailyMinimum, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if days != nil {
		from, to := DayWindow(r.now(), *days)
		rows, err = r.db.QueryContext(ctx,
			`SELECT date, MIN(price) FROM gold_prices
			 WHERE date >= ? AND date <= ?
			 GROUP BY date ORDER BY date DESC`,
			from, to,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT date, MIN(price) FROM gold_prices GROUP BY date ORDER BY date DESC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: daily minima: %w", ErrStore, err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.DailyMinimum
	for rows.Next() {
		var m models.DailyMinimum
		if err := rows.Scan(&m.Date, &m.Price); err != nil {
			return nil, fmt.Errorf("%w: scan minimum: %w", ErrStore, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: daily minima: %w", ErrStore, err)
	}
	return out, nil
}

func (r *SQLitePriceRepo) Latest(ctx context.Context) (*models.PriceSample, error) {
	var s models.PriceSample
	err := r.db.QueryRowContext(ctx,
		`SELECT price, timestamp, date FROM gold_prices ORDER BY timestamp DESC, id DESC LIMIT 1`,
	).Scan(&s.Price, &s.Timestamp, &s.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: latest: %w", ErrStore, err)
	}
	return &s, nil
}
