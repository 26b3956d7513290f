package analytics

import (
	"testing"
	"time"

	"fxbacktest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(result domain.Result, stoploss int, ratio string, session string, hours float64) *domain.SimulationOutcome {
	o := &domain.SimulationOutcome{
		Entry: domain.EntrySpec{
			Symbol: "GBPUSD", Direction: domain.Long,
			H4: "Uptrend", H1: "Uptrend", M15: "Pullback", EntryPoint: "OB",
		},
		Session:       session,
		StoplossSize:  stoploss,
		TradeRatio:    ratio,
		Result:        result,
		DurationHours: hours,
	}
	if result == domain.Inconclusive {
		o.CloseDay = domain.NotApplicable
		o.CloseTime = domain.NotApplicable
		o.DurationHours = 0
	}
	return o
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.AverageDuration)
	assert.Empty(t, s.ByStoploss)
	assert.Empty(t, s.BySession)
}

func TestSummarizeCountsAndWinRate(t *testing.T) {
	outcomes := []*domain.SimulationOutcome{
		outcome(domain.Winning, 20, "1:2", "London", 2.0),
		outcome(domain.Winning, 20, "1:3", "London", 4.0),
		outcome(domain.Losing, 25, "1:2", "Tokyo", 1.0),
		outcome(domain.Inconclusive, 25, "1:3", "Tokyo", 0),
	}

	s := Summarize(outcomes)

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.Equal(t, 1, s.InconclusiveTrades)
	// Totals identity.
	assert.Equal(t, s.TotalTrades, s.WinningTrades+s.LosingTrades+s.InconclusiveTrades)

	// Inconclusive excluded from the denominator: 2/3.
	assert.InDelta(t, 100.0*2/3, s.WinRate, 1e-9)
	// Average over resolved trades only.
	assert.InDelta(t, (2.0+4.0+1.0)/3, s.AverageDuration, 1e-9)
}

func TestSummarizeGroups(t *testing.T) {
	outcomes := []*domain.SimulationOutcome{
		outcome(domain.Winning, 20, "1:2", "London", 1),
		outcome(domain.Losing, 20, "1:2", "London", 1),
		outcome(domain.Winning, 30, "1:4", "Tokyo", 1),
		outcome(domain.Inconclusive, 20, "1:2", "London", 0),
	}

	s := Summarize(outcomes)

	require.Contains(t, s.ByStoploss, "20")
	assert.Equal(t, 2, s.ByStoploss["20"].Total) // Inconclusive not tallied
	assert.Equal(t, 1, s.ByStoploss["20"].Wins)
	assert.InDelta(t, 50.0, s.ByStoploss["20"].WinRate, 1e-9)

	require.Contains(t, s.ByRatio, "1:4")
	assert.InDelta(t, 100.0, s.ByRatio["1:4"].WinRate, 1e-9)

	require.Contains(t, s.BySession, "London")
	assert.Equal(t, 2, s.BySession["London"].Total)

	require.Contains(t, s.ByEntryPoint, "OB")
	assert.Equal(t, 3, s.ByEntryPoint["OB"].Total)
}

func TestSummarizeSkipsBlankTags(t *testing.T) {
	o := outcome(domain.Winning, 20, "1:2", "London", 1)
	o.Entry.H4 = ""
	o.Entry.EntryPoint = ""

	s := Summarize([]*domain.SimulationOutcome{o})

	assert.Empty(t, s.ByH4)
	assert.Empty(t, s.ByEntryPoint)
	// The blank tags do not remove the outcome from the other groups.
	assert.Equal(t, 1, s.ByStoploss["20"].Total)
	assert.Equal(t, 1, s.ByH1["Uptrend"].Total)
}

func TestSummarizeAllInconclusive(t *testing.T) {
	outcomes := []*domain.SimulationOutcome{
		outcome(domain.Inconclusive, 20, "1:2", "London", 0),
		outcome(domain.Inconclusive, 25, "1:3", "Tokyo", 0),
	}

	s := Summarize(outcomes)

	assert.Equal(t, 2, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.AverageDuration)
	assert.Empty(t, s.ByStoploss)
}

func timedOutcome(result domain.Result, ratio string, start, end time.Time) *domain.SimulationOutcome {
	return &domain.SimulationOutcome{
		Entry:        domain.EntrySpec{Symbol: "GBPUSD", Direction: domain.Long},
		StoplossSize: 20,
		TradeRatio:   ratio,
		Result:       result,
		StartTime:    start,
		EndTime:      end,
	}
}
