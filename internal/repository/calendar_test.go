package repository

import (
	"math"
	"testing"
	"time"
)

func TestCalendarDay_UsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2024-01-02 03:00 in Tokyo is still 2024-01-01 in UTC.
	ts := time.Date(2024, 1, 2, 3, 0, 0, 0, tokyo)
	if got := CalendarDay(ts); got != "2024-01-01" {
		t.Fatalf("CalendarDay: got %s", got)
	}
}

func TestDayWindow(t *testing.T) {
	now := time.Date(2024, 3, 2, 23, 59, 0, 0, time.UTC)

	cases := []struct {
		days     int
		from, to string
	}{
		{0, "2024-03-02", "2024-03-02"},
		{1, "2024-03-01", "2024-03-02"},
		{7, "2024-02-24", "2024-03-02"},
		{30, "2024-02-01", "2024-03-02"},
		{738946, "0001-01-01", "2024-03-02"},
		{738947, "0001-01-01", "2024-03-02"},
		{999999999, "0001-01-01", "2024-03-02"},
		{math.MaxInt, "0001-01-01", "2024-03-02"},
	}
	for _, tc := range cases {
		from, to := DayWindow(now, tc.days)
		if from != tc.from || to != tc.to {
			t.Fatalf("DayWindow(%d) = [%s, %s], want [%s, %s]", tc.days, from, to, tc.from, tc.to)
		}
	}
}
