package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Job is one scheduled unit of work. It must handle its own errors.
type Job func(ctx context.Context)

type Config struct {
	Interval   time.Duration // e.g. 1*time.Hour; ticks align to multiples of it
	JobTimeout time.Duration // per-run context deadline
}

// HourlyScheduler runs a job once at Start and then at every interval
// boundary (the top of each hour by default). Ticks do not wait for the
// previous run, so runs may overlap. Boundaries follow the wall clock of
// the process time zone.
type HourlyScheduler struct {
	job Job
	cfg Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func New(job Job, cfg Config) *HourlyScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	return &HourlyScheduler{job: job, cfg: cfg}
}

func (s *HourlyScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		fmt.Println("[SCHEDULER] Already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	// Initial fetch on startup (fire-and-forget)
	s.dispatch()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			next := NextBoundary(time.Now(), s.cfg.Interval)
			timer := time.NewTimer(time.Until(next))
			select {
			case <-stopCh:
				timer.Stop()
				return
			case <-timer.C:
				s.dispatch()
			}
		}
	}()

	fmt.Printf("[SCHEDULER] Started (every %s, next run at %s)\n",
		s.cfg.Interval, NextBoundary(time.Now(), s.cfg.Interval).Format(time.RFC3339))
}

// Stop prevents further ticks and waits for in-flight runs to finish.
func (s *HourlyScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Println("[SCHEDULER] Stopped")
}

func (s *HourlyScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow triggers the job synchronously outside the normal schedule.
func (s *HourlyScheduler) RunNow(ctx context.Context) {
	fmt.Println("[SCHEDULER] Manual run triggered")
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()
	s.job(ctx)
}

func (s *HourlyScheduler) dispatch() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()
		s.job(ctx)
	}()
}

// NextBoundary returns the first multiple of interval, counted from local
// midnight in now's location, strictly after now. With a one hour interval
// that is the next top of the local hour, including in zones with a
// half-hour offset. Intervals that do not divide a day restart at midnight.
func NextBoundary(now time.Time, interval time.Duration) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(midnight)
	next := midnight.Add((elapsed/interval + 1) * interval)

	tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	if next.After(tomorrow) {
		return tomorrow
	}
	return next
}
