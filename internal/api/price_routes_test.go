package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kjannette/goldprice-backend/internal/models"
)

func newTestServer(t *testing.T) (*Server, *MockPriceReader, *MockRefresher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	prices := NewMockPriceReader(ctrl)
	refresher := NewMockRefresher(ctrl)
	return NewServer(prices, refresher, Options{Port: 0}), prices, refresher
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func dayMillis(date string) int64 {
	d, _ := time.Parse(dateFormat, date)
	return d.UnixMilli()
}

func TestGoldPrices_DailyMinimaDescending(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().DailyMinima(gomock.Any(), gomock.Nil()).Return([]models.DailyMinimum{
		{Date: "2024-03-02", Price: decimal.NewFromInt(510)},
		{Date: "2024-03-01", Price: decimal.RequireFromString("480.25")},
	}, nil)

	rr := get(t, s, "/api/gold-prices")

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var got []struct {
		Timestamp int64   `json:"timestamp"`
		Price     float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, dayMillis("2024-03-02"), got[0].Timestamp)
	require.Equal(t, 510.0, got[0].Price)
	require.Equal(t, dayMillis("2024-03-01"), got[1].Timestamp)
	require.Equal(t, 480.25, got[1].Price)
}

func TestGoldPrices_PassesDays(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().
		DailyMinima(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, days *int) ([]models.DailyMinimum, error) {
			require.NotNil(t, days)
			require.Equal(t, 7, *days)
			return []models.DailyMinimum{{Date: "2024-03-02", Price: decimal.NewFromInt(510)}}, nil
		})

	rr := get(t, s, "/api/gold-prices?days=7")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestGoldPrices_InvalidDays(t *testing.T) {
	s, _, _ := newTestServer(t)

	for _, q := range []string{"abc", "-3", "1e3"} {
		rr := get(t, s, "/api/gold-prices?days="+q)
		require.Equal(t, http.StatusBadRequest, rr.Code, "days=%s", q)
		require.Equal(t, "Invalid days parameter", rr.Body.String())
	}
}

func TestGoldPrices_Empty404(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().DailyMinima(gomock.Any(), gomock.Any()).Return(nil, nil)

	rr := get(t, s, "/api/gold-prices")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "No data found", rr.Body.String())
	require.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
}

func TestGoldPrices_StoreError500(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().DailyMinima(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	rr := get(t, s, "/api/gold-prices")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "Error retrieving data", rr.Body.String())
}

func TestGoldPriceSeries(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().DailyMinima(gomock.Any(), gomock.Any()).Return([]models.DailyMinimum{
		{Date: "2024-03-02", Price: decimal.NewFromInt(510)},
		{Date: "2024-03-01", Price: decimal.NewFromInt(480)},
	}, nil)

	rr := get(t, s, "/api/gold-prices/series?days=30")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"dates":["2024-03-01","2024-03-02"],"prices":[480,510]}`, rr.Body.String())
}

func TestLatest_ReturnsOneElementArray(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().Latest(gomock.Any()).Return(&models.PriceSample{
		Price:     decimal.RequireFromString("612.35"),
		Timestamp: 1709287200000,
		Date:      "2024-03-01",
	}, nil)

	rr := get(t, s, "/api/latest-gold-price")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[{"timestamp":1709287200000,"price":612.35}]`, rr.Body.String())
}

func TestLatest_NoRefreshByDefault(t *testing.T) {
	s, prices, refresher := newTestServer(t)
	refresher.EXPECT().Run(gomock.Any()).Times(0)
	prices.EXPECT().Latest(gomock.Any()).Return(nil, nil).Times(4)

	for _, q := range []string{"", "?forceRefresh=false", "?forceRefresh=1", "?forceRefresh=TRUE"} {
		rr := get(t, s, "/api/latest-gold-price"+q)
		require.Equal(t, http.StatusNotFound, rr.Code)
	}
}

func TestLatest_ForceRefreshRunsBeforeRead(t *testing.T) {
	s, prices, refresher := newTestServer(t)
	gomock.InOrder(
		refresher.EXPECT().Run(gomock.Any()).Times(1),
		prices.EXPECT().Latest(gomock.Any()).Return(&models.PriceSample{
			Price:     decimal.NewFromInt(600),
			Timestamp: 1709290800000,
			Date:      "2024-03-01",
		}, nil),
	)

	rr := get(t, s, "/api/latest-gold-price?forceRefresh=true")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[{"timestamp":1709290800000,"price":600}]`, rr.Body.String())
}

func TestLatest_Empty404(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().Latest(gomock.Any()).Return(nil, nil)

	rr := get(t, s, "/api/latest-gold-price")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "No data found", rr.Body.String())
}

func TestLatest_StoreError500(t *testing.T) {
	s, prices, _ := newTestServer(t)
	prices.EXPECT().Latest(gomock.Any()).Return(nil, errors.New("timeout"))

	rr := get(t, s, "/api/latest-gold-price")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "Error retrieving latest price", rr.Body.String())
}

func TestHealth(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewServer(NewMockPriceReader(ctrl), NewMockRefresher(ctrl), Options{
		APIKey:      "secret",
		HealthCheck: func(context.Context) error { return errors.New("down") },
	})

	rr := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "disconnected", body.Services.Database)
}

func TestRoutes_RequireAuthWhenKeySet(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := NewServer(NewMockPriceReader(ctrl), NewMockRefresher(ctrl), Options{APIKey: "secret"})

	rr := get(t, s, "/api/gold-prices")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
