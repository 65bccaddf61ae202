package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/goldprice-backend/internal/models"
)

//go:generate mockgen -source=server.go -destination=mock_deps_test.go -package=api

// PriceReader is the read side of the price store.
type PriceReader interface {
	DailyMinima(ctx context.Context, days *int) ([]models.DailyMinimum, error)
	Latest(ctx context.Context) (*models.PriceSample, error)
}

// Refresher records a fresh sample; failures are handled inside Run.
type Refresher interface {
	Run(ctx context.Context)
}

type Options struct {
	Port            int
	APIKey          string
	CORSAllowOrigin string
	// HealthCheck pings the store for /health. Nil reports "unknown".
	HealthCheck func(ctx context.Context) error
}

type Server struct {
	prices      PriceReader
	refresher   Refresher
	healthCheck func(ctx context.Context) error
	httpServer  *http.Server
	apiKey      string
}

func NewServer(prices PriceReader, refresher Refresher, opts Options) *Server {
	s := &Server{
		prices:      prices,
		refresher:   refresher,
		healthCheck: opts.HealthCheck,
		apiKey:      opts.APIKey,
	}

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", opts.Port),
		Handler:     s.routes(opts.CORSAllowOrigin),
		ReadTimeout: 10 * time.Second,
		// forceRefresh waits on the upstream call
		WriteTimeout: 60 * time.Second,
	}

	return s
}

func (s *Server) routes(corsOrigin string) http.Handler {
	mux := http.NewServeMux()

	// Price routes
	mux.HandleFunc("GET /api/gold-prices", s.handleGoldPrices)
	mux.HandleFunc("GET /api/gold-prices/series", s.handleGoldPriceSeries)
	mux.HandleFunc("GET /api/latest-gold-price", s.handleLatestGoldPrice)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.authMiddleware(corsMiddleware(mux, corsOrigin))
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeText(w, http.StatusUnauthorized, "Missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeText(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeText sends a plain-text error body.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	fmt.Fprint(w, msg)
}
