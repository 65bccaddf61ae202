package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kjannette/goldprice-backend/internal/chart"
	"github.com/kjannette/goldprice-backend/internal/models"
)

const dateFormat = "2006-01-02"

type priceJSON struct {
	Timestamp int64       `json:"timestamp"`
	Price     json.Number `json:"price"`
}

func (s *Server) handleGoldPrices(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.dailyMinima(w, r)
	if !ok {
		return
	}

	out := make([]priceJSON, 0, len(rows))
	for _, m := range rows {
		day, err := time.Parse(dateFormat, m.Date)
		if err != nil {
			fmt.Printf("[API] Error retrieving data: bad stored date %q: %v\n", m.Date, err)
			writeText(w, http.StatusInternalServerError, "Error retrieving data")
			return
		}
		out = append(out, priceJSON{Timestamp: day.UnixMilli(), Price: json.Number(m.Price.String())})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGoldPriceSeries(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.dailyMinima(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chart.FromMinima(rows))
}

// dailyMinima reads the per-date minima for the optional days filter and
// writes the 400/404/500 responses itself.
func (s *Server) dailyMinima(w http.ResponseWriter, r *http.Request) ([]models.DailyMinimum, bool) {
	days, ok := parseDays(r)
	if !ok {
		writeText(w, http.StatusBadRequest, "Invalid days parameter")
		return nil, false
	}

	rows, err := s.prices.DailyMinima(r.Context(), days)
	if err != nil {
		fmt.Printf("[API] Error retrieving data: %v\n", err)
		writeText(w, http.StatusInternalServerError, "Error retrieving data")
		return nil, false
	}
	if len(rows) == 0 {
		writeText(w, http.StatusNotFound, "No data found")
		return nil, false
	}
	return rows, true
}

func (s *Server) handleLatestGoldPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Fetch failures are swallowed; the read below then serves the previous sample.
	if r.URL.Query().Get("forceRefresh") == "true" && s.refresher != nil {
		s.refresher.Run(ctx)
	}

	latest, err := s.prices.Latest(ctx)
	if err != nil {
		fmt.Printf("[API] Error retrieving latest price: %v\n", err)
		writeText(w, http.StatusInternalServerError, "Error retrieving latest price")
		return
	}
	if latest == nil {
		writeText(w, http.StatusNotFound, "No data found")
		return
	}

	writeJSON(w, http.StatusOK, []priceJSON{{
		Timestamp: latest.Timestamp,
		Price:     json.Number(latest.Price.String()),
	}})
}

// --- validation helpers ---

// parseDays returns nil when days is absent and false when it is not a
// non-negative integer.
func parseDays(r *http.Request) (*int, bool) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, false
	}
	return &n, true
}
