// Package timeutil holds the date/time parsing, formatting and
// trading-session helpers shared by the backtest core.
package timeutil

import (
	"fmt"
	"time"

	"fxbacktest/internal/ports"
)

// Layouts used across the application. Candle and news rows are keyed by
// the DB layout; entry specs arrive in the display layouts.
const (
	LayoutDB          = "2006-01-02 15:04:05"
	LayoutMinute      = "2006-01-02 15:04"
	LayoutDisplayDate = "02/01/06"
	LayoutDisplayTime = "15:04"
)

// CombineDateAndTime combines a "dd/mm/yy" date and an "HH:MM" time into a
// single timestamp in loc. Malformed input yields ErrInvalidTimeSpec.
func CombineDateAndTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(LayoutDisplayDate+" "+LayoutDisplayTime, dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("combining date %q and time %q: %w: %v", dateStr, timeStr, ports.ErrInvalidTimeSpec, err)
	}
	return t, nil
}

// FormatDB formats a timestamp for database storage.
func FormatDB(t time.Time) string {
	return t.Format(LayoutDB)
}

// ParseDB parses a database timestamp in loc.
func ParseDB(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(LayoutDB, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing db timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatMinute formats a timestamp to minute precision, the layout used
// for trading-entry start/end columns.
func FormatMinute(t time.Time) string {
	return t.Format(LayoutMinute)
}

// ParseMinute parses a minute-precision timestamp in loc.
func ParseMinute(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(LayoutMinute, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing minute timestamp %q: %w", s, err)
	}
	return t, nil
}

// FormatDisplayDate formats the date portion for presentation ("dd/mm/yy").
func FormatDisplayDate(t time.Time) string {
	return t.Format(LayoutDisplayDate)
}

// FormatDisplayTime formats the clock portion for presentation ("HH:MM").
func FormatDisplayTime(t time.Time) string {
	return t.Format(LayoutDisplayTime)
}

// NormalizeToM15 floors a timestamp to the open of its 15-minute bar,
// in the timestamp's own location.
func NormalizeToM15(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), (t.Minute()/15)*15, 0, 0, t.Location())
}
