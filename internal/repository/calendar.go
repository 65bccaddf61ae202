package repository

import "time"

const dateFormat = "2006-01-02"

// firstDay is the earliest date both backends accept.
var firstDay = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)

// CalendarDay returns the UTC calendar date (YYYY-MM-DD) of ts.
func CalendarDay(ts time.Time) string {
	return ts.UTC().Format(dateFormat)
}

// DayWindow returns the inclusive date bounds [today-days, today] around now.
// A window reaching past 0001-01-01 starts there.
func DayWindow(now time.Time, days int) (from, to string) {
	today := now.UTC()
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if maxDays := (midnight.Unix() - firstDay.Unix()) / 86400; int64(days) > maxDays {
		return firstDay.Format(dateFormat), today.Format(dateFormat)
	}
	return today.AddDate(0, 0, -days).Format(dateFormat), today.Format(dateFormat)
}
