// Package backtest contains the trade simulator: it grades a single
// entry hypothesis against archived candles for a grid of stop-loss and
// reward-ratio combinations.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"
	"fxbacktest/internal/timeutil"
)

// Simulator walks historical candles forward from an entry to decide
// whether take-profit or stop-loss is touched first for each grid cell.
// It is pure over its candle provider: no persistence, no shared state,
// safe to call concurrently as long as each call owns its candle session.
type Simulator struct {
	candles   ports.CandleProvider
	logger    ports.Logger
	loc       *time.Location
	timeframe domain.Timeframe
}

// Config holds the simulator's dependencies.
type Config struct {
	Candles   ports.CandleProvider
	Logger    ports.Logger
	Location  *time.Location   // Timezone the entry clock times are given in
	Timeframe domain.Timeframe // Reference timeframe; defaults to M15
}

// NewSimulator creates a simulator instance.
func NewSimulator(cfg Config) (*Simulator, error) {
	if cfg.Candles == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Simulator")
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	tf := cfg.Timeframe
	if tf == "" {
		tf = domain.TimeframeM15
	}
	if !tf.IsValid() {
		return nil, fmt.Errorf("invalid reference timeframe %q: %w", tf, ports.ErrConfigurationError)
	}
	return &Simulator{candles: cfg.Candles, logger: cfg.Logger, loc: loc, timeframe: tf}, nil
}

// Simulate grades one entry against every (stoplossSize, rewardRatio)
// pair in the cartesian product of the two lists, stop-loss outer and
// ratio inner, and returns one outcome per pair in that order.
//
// The entry's open price is the open of the reference-timeframe candle
// whose timestamp exactly equals the resolved entry time. Any failure to
// resolve the time, find that candle, or fetch subsequent candles aborts
// the whole simulation with no partial results.
func (s *Simulator) Simulate(ctx context.Context, entry domain.EntrySpec, stoplossSizes []int, rewardRatios []float64, pipScale float64) ([]*domain.SimulationOutcome, error) {
	if !entry.Direction.IsValid() {
		return nil, fmt.Errorf("direction %q: %w", entry.Direction, ports.ErrInvalidRequest)
	}
	if pipScale <= 0 {
		return nil, fmt.Errorf("pip scale must be positive, got %v: %w", pipScale, ports.ErrInvalidRequest)
	}

	startTime, err := timeutil.CombineDateAndTime(entry.Day, entry.OpenTime, s.loc)
	if err != nil {
		return nil, err
	}
	session := timeutil.SessionFor(startTime, s.loc)

	s.logger.Info(ctx, "Backtesting entry", map[string]interface{}{
		"symbol": entry.Symbol, "start": timeutil.FormatDB(startTime),
		"direction": entry.Direction, "session": session,
	})

	entryCandle, err := s.candles.CandleAt(ctx, entry.Symbol, s.timeframe, startTime)
	if err != nil {
		return nil, fmt.Errorf("fetching entry candle: %w", err)
	}
	if entryCandle == nil {
		return nil, fmt.Errorf("no %s candle for %s at %s: %w", s.timeframe, entry.Symbol, timeutil.FormatDB(startTime), ports.ErrNoPriceData)
	}
	open := entryCandle.Open
	s.logger.Debug(ctx, "Entry open price resolved", map[string]interface{}{"open": open})

	// One scan buffer serves the whole grid: the history is immutable, so
	// refetching per pair would return the same bars.
	subsequent, err := s.candles.CandlesAfter(ctx, entry.Symbol, s.timeframe, startTime, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching subsequent candles: %w", err)
	}

	outcomes := make([]*domain.SimulationOutcome, 0, len(stoplossSizes)*len(rewardRatios))
	for _, stoplossSize := range stoplossSizes {
		for _, ratio := range rewardRatios {
			stopDistance := float64(stoplossSize) * pipScale

			var takeProfit, stopLoss float64
			if entry.Direction == domain.Long {
				takeProfit = open + stopDistance*ratio
				stopLoss = open - stopDistance
			} else {
				takeProfit = open - stopDistance*ratio
				stopLoss = open + stopDistance
			}
			s.logger.Debug(ctx, "Testing grid cell", map[string]interface{}{
				"stoplossSize": stoplossSize, "ratio": domain.RatioLabel(ratio),
				"takeProfit": takeProfit, "stopLoss": stopLoss,
			})

			outcome := s.scan(entry, session, startTime, stoplossSize, ratio, takeProfit, stopLoss, subsequent)
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes, nil
}

// scan walks the candles in ascending order until take-profit or
// stop-loss triggers. On a bar touching both levels the take-profit test
// runs first, so the tie resolves to Winning for either direction.
func (s *Simulator) scan(entry domain.EntrySpec, session string, startTime time.Time, stoplossSize int, ratio, takeProfit, stopLoss float64, candles []*domain.Candle) *domain.SimulationOutcome {
	outcome := &domain.SimulationOutcome{
		Entry:        entry,
		Session:      session,
		StoplossSize: stoplossSize,
		TradeRatio:   domain.RatioLabel(ratio),
		StartTime:    startTime,
	}

	for _, c := range candles {
		var result domain.Result
		if entry.Direction == domain.Long {
			switch {
			case c.High >= takeProfit:
				result = domain.Winning
			case c.Low <= stopLoss:
				result = domain.Losing
			}
		} else {
			switch {
			case c.Low <= takeProfit:
				result = domain.Winning
			case c.High >= stopLoss:
				result = domain.Losing
			}
		}
		if result == "" {
			continue
		}

		outcome.Result = result
		outcome.EndTime = c.Time
		outcome.CloseDay = timeutil.FormatDisplayDate(c.Time)
		outcome.CloseTime = timeutil.FormatDisplayTime(c.Time)
		outcome.DurationHours = roundHours(c.Time.Sub(startTime))
		return outcome
	}

	// History exhausted before either level was touched.
	outcome.Result = domain.Inconclusive
	outcome.CloseDay = domain.NotApplicable
	outcome.CloseTime = domain.NotApplicable
	outcome.DurationHours = 0
	return outcome
}

// roundHours converts a duration to hours rounded to one decimal place,
// half-to-even (15 minutes is 0.2, 45 minutes is 0.8).
func roundHours(d time.Duration) float64 {
	return math.RoundToEven(d.Hours()*10) / 10
}
