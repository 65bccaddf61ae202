package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/goldprice-backend/internal/models"
)

// PgPriceRepo is the Postgres-backed PriceStore.
type PgPriceRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPriceRepo(pool *pgxpool.Pool) *PgPriceRepo {
	return &PgPriceRepo{pool: pool, now: time.Now}
}

func (r *PgPriceRepo) Insert(ctx context.Context, s models.PriceSample) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO gold_prices (price, timestamp, date) VALUES ($1, $2, $3)`,
		s.Price.String(), s.Timestamp, s.Date,
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %w", ErrStore, err)
	}
	return nil
}

func (r *PgPriceRepo) DailyMinima(ctx context.Context, days *int) ([]models.DailyMinimum, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if days != nil {
		from, to := DayWindow(r.now(), *days)
		rows, err = r.pool.Query(ctx,
			`SELECT date, MIN(price) FROM gold_prices
			 WHERE date >= $1 AND date <= $2
			 GROUP BY date ORDER BY date DESC`,
			from, to,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT date, MIN(price) FROM gold_prices GROUP BY date ORDER BY date DESC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: daily minima: %w", ErrStore, err)
	}
	defer rows.Close()

	out, err := collectMinima(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: daily minima: %w", ErrStore, err)
	}
	return out, nil
}

func (r *PgPriceRepo) Latest(ctx context.Context) (*models.PriceSample, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT price, timestamp, date FROM gold_prices ORDER BY timestamp DESC, id DESC LIMIT 1`,
	)
	s, err := scanSample(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: latest: %w", ErrStore, err)
	}
	return s, nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanSample(row scannable) (*models.PriceSample, error) {
	var s models.PriceSample
	var d time.Time
	if err := row.Scan(&s.Price, &s.Timestamp, &d); err != nil {
		return nil, err
	}
	s.Date = d.Format(dateFormat)
	return &s, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectMinima(rows rowsIter) ([]models.DailyMinimum, error) {
	var out []models.DailyMinimum
	for rows.Next() {
		var m models.DailyMinimum
		var d time.Time
		if err := rows.Scan(&d, &m.Price); err != nil {
			return nil, err
		}
		m.Date = d.Format(dateFormat)
		out = append(out, m)
	}
	return out, rows.Err()
}
