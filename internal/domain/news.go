package domain

import "time"

// ImpactLevel is the published importance of a news event.
type ImpactLevel string

const (
	ImpactHigh   ImpactLevel = "High"
	ImpactMedium ImpactLevel = "Medium"
	ImpactLow    ImpactLevel = "Low"
)

// NewsEvent is one calendar event from the external news feed.
//
// The enrichment fields (CloseBefore through PipsDown) are populated by a
// one-time pass after insertion and left nil when no favourable excursion
// occurred or no price data surrounds the event. Rows are immutable after
// enrichment.
type NewsEvent struct {
	ID       int64
	Time     time.Time
	Impact   ImpactLevel
	Currency string
	Name     string

	Actual   string // Published value, free-form
	Forecast string
	Previous string

	CloseBefore *float64 // Close of the latest candle strictly before the event
	HighAfter   *float64 // Max high within the look-ahead window
	LowAfter    *float64 // Min low within the look-ahead window
	PipsUp      *float64 // Favourable upward excursion in pips, if any
	PipsDown    *float64 // Favourable downward excursion in pips, if any
}
