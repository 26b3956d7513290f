// Package analytics reduces collections of simulation outcomes into
// win-rate, drawdown and equity-curve statistics. Everything here is
// recomputed on demand and reproducible from the same outcome set.
package analytics

import (
	"strconv"

	"fxbacktest/internal/domain"
)

// GroupStat aggregates the outcomes sharing one tag value.
type GroupStat struct {
	Total   int
	Wins    int
	WinRate float64 // percent
}

// Summary holds the aggregate statistics for a set of outcomes.
// Inconclusive outcomes count toward the totals but are excluded from the
// win rate, the average duration and every group map.
type Summary struct {
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
	InconclusiveTrades int
	WinRate            float64 // percent; 0 when no resolved trades
	AverageDuration    float64 // hours; 0 when no resolved trades

	ByStoploss   map[string]*GroupStat
	ByRatio      map[string]*GroupStat
	BySession    map[string]*GroupStat
	ByH4         map[string]*GroupStat
	ByH1         map[string]*GroupStat
	ByM15        map[string]*GroupStat
	ByEntryPoint map[string]*GroupStat
}

// Summarize reduces outcomes into a Summary. It never fails: an empty
// input yields zero counts and empty group maps.
func Summarize(outcomes []*domain.SimulationOutcome) *Summary {
	s := &Summary{
		ByStoploss:   make(map[string]*GroupStat),
		ByRatio:      make(map[string]*GroupStat),
		BySession:    make(map[string]*GroupStat),
		ByH4:         make(map[string]*GroupStat),
		ByH1:         make(map[string]*GroupStat),
		ByM15:        make(map[string]*GroupStat),
		ByEntryPoint: make(map[string]*GroupStat),
	}

	var durationSum float64
	var durationCount int

	for _, o := range outcomes {
		s.TotalTrades++
		switch o.Result {
		case domain.Winning:
			s.WinningTrades++
		case domain.Losing:
			s.LosingTrades++
		case domain.Inconclusive:
			s.InconclusiveTrades++
		}

		if o.Result != domain.Inconclusive && o.DurationHours > 0 {
			durationSum += o.DurationHours
			durationCount++
		}

		// Inconclusive outcomes carry no win/loss signal for any group.
		if o.Result == domain.Inconclusive {
			continue
		}
		win := o.Result == domain.Winning
		tally(s.ByStoploss, strconv.Itoa(o.StoplossSize), win)
		tally(s.ByRatio, o.TradeRatio, win)
		tally(s.BySession, o.Session, win)
		tally(s.ByH4, o.Entry.H4, win)
		tally(s.ByH1, o.Entry.H1, win)
		tally(s.ByM15, o.Entry.M15, win)
		tally(s.ByEntryPoint, o.Entry.EntryPoint, win)
	}

	if resolved := s.WinningTrades + s.LosingTrades; resolved > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(resolved) * 100
	}
	if durationCount > 0 {
		s.AverageDuration = durationSum / float64(durationCount)
	}

	for _, group := range []map[string]*GroupStat{
		s.ByStoploss, s.ByRatio, s.BySession, s.ByH4, s.ByH1, s.ByM15, s.ByEntryPoint,
	} {
		for _, g := range group {
			if g.Total > 0 {
				g.WinRate = float64(g.Wins) / float64(g.Total) * 100
			}
		}
	}
	return s
}

// tally records one resolved outcome under its tag value. A blank tag
// excludes the outcome from this group only, not from the others.
func tally(group map[string]*GroupStat, key string, win bool) {
	if key == "" {
		return
	}
	g, ok := group[key]
	if !ok {
		g = &GroupStat{}
		group[key] = g
	}
	g.Total++
	if win {
		g.Wins++
	}
}
