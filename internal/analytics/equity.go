package analytics

import (
	"time"

	"fxbacktest/internal/domain"
)

// EquityPoint is one step of the equity curve: the balance immediately
// after a resolved trade closed.
type EquityPoint struct {
	Time     time.Time // Resolution time of the trade
	Balance  float64
	Result   domain.Result
	Position domain.Direction
	Stoploss int
	Ratio    string
}

// GenerateEquityCurve replays outcomes in entry-time order under the
// fixed-unit balance model and emits one point per resolved trade.
// Inconclusive outcomes are skipped entirely, so the curve length equals
// the number of resolved outcomes.
func GenerateEquityCurve(outcomes []*domain.SimulationOutcome) []EquityPoint {
	sorted := sortByStart(outcomes)

	curve := make([]EquityPoint, 0, len(sorted))
	balance := startingBalance

	for _, o := range sorted {
		if !o.Resolved() {
			continue
		}

		if o.Result == domain.Winning {
			balance += riskPercent * o.RatioValue()
		} else {
			balance -= riskPercent
		}

		curve = append(curve, EquityPoint{
			Time:     o.EndTime,
			Balance:  balance,
			Result:   o.Result,
			Position: o.Entry.Direction,
			Stoploss: o.StoplossSize,
			Ratio:    o.TradeRatio,
		})
	}
	return curve
}
