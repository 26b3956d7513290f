package analytics

import (
	"sort"
	"time"

	"fxbacktest/internal/domain"
)

// Balance model shared by the drawdown and equity-curve calculations:
// every trade risks a flat 2 units against a starting balance of 100. A
// win adds 2×ratio, a loss subtracts 2, with no compounding against the
// live balance. This fixed-unit accounting is deliberate and must not be
// "upgraded" to true compounding.
const (
	startingBalance = 100.0
	riskPercent     = 2.0
)

// DrawdownPeriod is one completed peak-to-recovery stretch.
type DrawdownPeriod struct {
	Start          time.Time
	End            time.Time
	Depth          float64 // percent below the peak at its deepest
	RecoveryTrades int
}

// DrawdownReport summarizes balance decline across a sequence of trades.
type DrawdownReport struct {
	MaxDrawdownPercent float64
	MaxDrawdownStart   time.Time // zero when no drawdown occurred
	MaxDrawdownEnd     time.Time
	FinalBalance       float64
	PeakBalance        float64
	DrawdownPeriods    []DrawdownPeriod
}

// CalculateDrawdown replays outcomes in entry-time order and tracks the
// running peak balance. A drawdown period opens the first time the
// balance drops below the peak and closes when a new peak is reached;
// the maximum drawdown and its start/end timestamps are tracked across
// the whole sequence. Inconclusive outcomes do not affect the balance.
func CalculateDrawdown(outcomes []*domain.SimulationOutcome) *DrawdownReport {
	sorted := sortByStart(outcomes)

	report := &DrawdownReport{
		FinalBalance:    startingBalance,
		PeakBalance:     startingBalance,
		DrawdownPeriods: make([]DrawdownPeriod, 0),
	}

	balance := startingBalance
	peakBalance := startingBalance
	var currentDrawdown float64
	var drawdownStart time.Time

	for _, o := range sorted {
		if !o.Resolved() {
			continue
		}

		if o.Result == domain.Winning {
			balance += riskPercent * o.RatioValue()
		} else {
			balance -= riskPercent
		}

		if balance > peakBalance {
			peakBalance = balance

			// The previous drawdown stretch has recovered; record it.
			if currentDrawdown > 0 {
				report.DrawdownPeriods = append(report.DrawdownPeriods, DrawdownPeriod{
					Start:          drawdownStart,
					End:            o.EndTime,
					Depth:          currentDrawdown,
					RecoveryTrades: 1,
				})
				currentDrawdown = 0
				drawdownStart = time.Time{}
			}
		}

		currentDrawdown = (peakBalance - balance) / peakBalance * 100

		if currentDrawdown > report.MaxDrawdownPercent {
			report.MaxDrawdownPercent = currentDrawdown
			if drawdownStart.IsZero() {
				drawdownStart = o.StartTime
			}
			report.MaxDrawdownEnd = o.EndTime
		}
	}

	report.MaxDrawdownStart = drawdownStart
	report.FinalBalance = balance
	report.PeakBalance = peakBalance
	return report
}

// sortByStart returns a copy of outcomes ordered ascending by entry
// start time, leaving the caller's slice untouched.
func sortByStart(outcomes []*domain.SimulationOutcome) []*domain.SimulationOutcome {
	sorted := make([]*domain.SimulationOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})
	return sorted
}
