package domain

import (
	"strconv"
	"strings"
	"time"
)

// Result is the terminal state of one simulated trade.
type Result string

const (
	Winning      Result = "Winning"
	Losing       Result = "Losing"
	Inconclusive Result = "Inconclusive" // ran out of history before TP or SL
)

// NotApplicable is the sentinel stored in display fields when a trade
// never resolved.
const NotApplicable = "N/A"

// SimulationOutcome is the result of simulating one EntrySpec against one
// (stop-loss size, reward ratio) pair. Immutable once produced.
//
// Invariant: DurationHours is 0 and EndTime is the zero time exactly when
// Result is Inconclusive.
type SimulationOutcome struct {
	Entry   EntrySpec
	Session string // Trading session of the entry clock time

	StoplossSize int    // Stop distance in pips
	TradeRatio   string // Reward ratio label, "1:N"

	Result        Result
	CloseDay      string // Display date of the resolving candle, or "N/A"
	CloseTime     string // Display time of the resolving candle, or "N/A"
	StartTime     time.Time
	EndTime       time.Time // Zero when Inconclusive
	DurationHours float64   // Entry to resolution, one decimal place
}

// Resolved reports whether the simulation reached a terminal win or loss.
func (o *SimulationOutcome) Resolved() bool {
	return o.Result != Inconclusive
}

// RatioValue parses the numeric reward multiple out of the "1:N" label.
// Unparseable labels fall back to 1.
func (o *SimulationOutcome) RatioValue() float64 {
	parts := strings.SplitN(o.TradeRatio, ":", 2)
	if len(parts) != 2 {
		return 1
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 1
	}
	return v
}

// RatioLabel formats a reward multiple as the canonical "1:N" label.
func RatioLabel(ratio float64) string {
	return "1:" + strconv.FormatFloat(ratio, 'f', -1, 64)
}
