package timeutil

import "time"

// Session names as carried on simulation outcomes.
const (
	SessionLondon  = "London"
	SessionTokyo   = "Tokyo"
	SessionNewYork = "New York"
	SessionUnknown = "Unknown"
)

// Fixed session boundaries on the broker clock, in minutes from midnight.
// London [15:00,20:00), Tokyo [05:00,15:00), New York wraps midnight
// [20:00,05:00).
const (
	tokyoStart   = 5 * 60
	londonStart  = 15 * 60
	newYorkStart = 20 * 60
	newYorkEnd   = 5 * 60
)

// SessionFor classifies a timestamp into its trading session. The
// timestamp is interpreted in loc; a nil loc means the timestamp's own
// location.
func SessionFor(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	minute := t.Hour()*60 + t.Minute()

	switch {
	case minute >= londonStart && minute < newYorkStart:
		return SessionLondon
	case minute >= tokyoStart && minute < londonStart:
		return SessionTokyo
	case minute >= newYorkStart || minute < newYorkEnd:
		return SessionNewYork
	default:
		return SessionUnknown
	}
}
