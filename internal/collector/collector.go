package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/kjannette/goldprice-backend/internal/external"
	"github.com/kjannette/goldprice-backend/internal/models"
	"github.com/kjannette/goldprice-backend/internal/notifications"
	"github.com/kjannette/goldprice-backend/internal/repository"
)

// QuoteSource returns the current upstream sell price.
type QuoteSource interface {
	FetchSellPrice(ctx context.Context) (decimal.Decimal, error)
}

// SampleWriter appends one sample to storage.
type SampleWriter interface {
	Insert(ctx context.Context, s models.PriceSample) error
}

// Notifier receives every failed collection.
type Notifier interface {
	Enabled() bool
	NotifyFailure(ctx context.Context, f notifications.Failure) bool
}

var errPanic = errors.New("collector panic")

type Options struct {
	// Coalesce makes concurrent callers share a single upstream call and insert.
	Coalesce bool
	Notifier Notifier
	// Upstream names the quote endpoint in failure alerts.
	Upstream string
	Now      func() time.Time
}

// Collector fetches a quote and records it. The scheduler and the
// forceRefresh handler are both callers.
type Collector struct {
	source   QuoteSource
	store    SampleWriter
	notify   Notifier
	upstream string
	now      func() time.Time

	coalesce bool
	group    singleflight.Group
}

func New(source QuoteSource, store SampleWriter, opts Options) *Collector {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{
		source:   source,
		store:    store,
		notify:   opts.Notifier,
		upstream: opts.Upstream,
		now:      opts.Now,
		coalesce: opts.Coalesce,
	}
}

// Collect fetches one quote and inserts exactly one sample. Nothing is
// written when the fetch fails.
func (c *Collector) Collect(ctx context.Context) (*models.PriceSample, error) {
	if !c.coalesce {
		return c.collect(ctx)
	}
	v, err, shared := c.group.Do("gold", func() (any, error) {
		return c.collect(ctx)
	})
	if shared {
		fmt.Println("[FETCHER] Joined an in-flight fetch")
	}
	if err != nil {
		return nil, err
	}
	s := *v.(*models.PriceSample)
	return &s, nil
}

func (c *Collector) collect(ctx context.Context) (*models.PriceSample, error) {
	price, err := c.source.FetchSellPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch gold price: %w", err)
	}

	now := c.now()
	s := models.PriceSample{
		Price:     price,
		Timestamp: now.UnixMilli(),
		Date:      repository.CalendarDay(now),
	}
	if err := c.store.Insert(ctx, s); err != nil {
		return nil, fmt.Errorf("record gold price: %w", err)
	}
	return &s, nil
}

// Run is Collect for fire-and-forget callers: failures are logged and
// swallowed, panics included.
func (c *Collector) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.report(ctx, fmt.Errorf("%w: %v", errPanic, r))
		}
	}()

	s, err := c.Collect(ctx)
	if err != nil {
		c.report(ctx, err)
		return
	}
	fmt.Printf("[FETCHER] Gold price recorded: %s at %s (%s)\n",
		s.Price.String(), time.UnixMilli(s.Timestamp).UTC().Format(time.RFC3339), s.Date)
}

func (c *Collector) report(ctx context.Context, err error) {
	fmt.Printf("[FETCHER] Error fetching gold price: %v\n", err)
	if c.notify != nil && c.notify.Enabled() {
		f := notifications.Failure{
			Kind:     FailureKind(err),
			Upstream: c.upstream,
			Err:      err,
			At:       c.now(),
		}
		go c.notify.NotifyFailure(context.WithoutCancel(ctx), f)
	}
}

// FailureKind classifies a Collect error for alerting.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, errPanic):
		return notifications.KindPanic
	case errors.Is(err, external.ErrNetwork):
		return notifications.KindNetwork
	case errors.Is(err, external.ErrBadResponse):
		return notifications.KindBadResponse
	case errors.Is(err, repository.ErrStore):
		return notifications.KindStore
	}
	return notifications.KindUnknown
}
