package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kjannette/goldprice-backend/internal/api"
	"github.com/kjannette/goldprice-backend/internal/collector"
	"github.com/kjannette/goldprice-backend/internal/config"
	"github.com/kjannette/goldprice-backend/internal/db"
	"github.com/kjannette/goldprice-backend/internal/external"
	"github.com/kjannette/goldprice-backend/internal/notifications"
	"github.com/kjannette/goldprice-backend/internal/repository"
	"github.com/kjannette/goldprice-backend/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║       Gold Price Tracker v1.0        ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	// Database
	prices, healthCheck, closeDB, err := openStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DB] %v\n", err)
		os.Exit(1)
	}
	defer closeDB()

	// Upstream quote client
	gold, err := external.NewGoldClient(external.GoldOptions{
		URL:           cfg.GoldAPIURL,
		AppKey:        cfg.GoldAppKey,
		ProductID:     cfg.GoldProductID,
		RegionCode:    cfg.GoldRegionCode,
		InstitutionID: cfg.GoldInstitutionID,
		MaxAttempts:   cfg.FetchMaxAttempts,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FETCHER] Client init failed: %v\n", err)
		os.Exit(1)
	}

	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName,
		time.Duration(cfg.WebhookCooldownMinutes)*time.Minute)
	col := collector.New(gold, prices, collector.Options{
		Coalesce: cfg.FetchCoalesce,
		Notifier: notify,
		Upstream: cfg.GoldAPIURL,
	})

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Scheduler: one fetch now, then at the top of every hour
	sched := scheduler.New(col.Run, scheduler.Config{
		Interval:   time.Duration(cfg.FetchIntervalMinutes) * time.Minute,
		JobTimeout: time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
	})
	sched.Start()

	// 2. API server
	srv := api.NewServer(prices, col, api.Options{
		Port:            cfg.Port,
		APIKey:          cfg.APIKey,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		HealthCheck:     healthCheck,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("[API] Server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nShutting down gracefully...")

		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("[API] Shutdown error: %w", err)
		}
		fmt.Println("[API] Server closed")
		return nil
	})

	fmt.Println("\nAll services started successfully")

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		closeDB()
		os.Exit(1)
	}
	fmt.Println("Shutdown complete")
}

// openStore connects the configured backend and returns the store, a health
// probe and a close func.
func openStore(cfg *config.Config) (repository.PriceStore, func(context.Context) error, func(), error) {
	if cfg.StoreDriver == config.DriverSQLite {
		fmt.Printf("\n[DB] Opening SQLite %s ...\n", cfg.SQLitePath)
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open failed: %w", err)
		}
		closeFn := func() {
			sqlDB.Close()
			fmt.Println("[DB] SQLite closed")
		}
		return repository.NewSQLitePriceRepo(sqlDB), sqlDB.PingContext, closeFn, nil
	}

	fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := db.Connect(cfg.DSN())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connection failed: %w", err)
	}
	if err := db.TestConnection(pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("test query failed: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(migrateCtx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	closeFn := func() {
		pool.Close()
		fmt.Println("[DB] Connection pool closed")
	}
	return repository.NewPriceRepo(pool), pool.Ping, closeFn, nil
}
