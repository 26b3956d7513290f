// Package news computes the typical price displacement following
// calendar news events. Its outputs are advisory classification inputs
// for the presentation layer; nothing here feeds the trade simulator.
package news

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"
)

// Analyzer enriches news events with post-event price excursions and
// summarizes their historical impact.
type Analyzer struct {
	candles   ports.CandleProvider
	news      ports.NewsRepository
	logger    ports.Logger
	symbol    string
	timeframe domain.Timeframe
}

// Config holds the analyzer's dependencies.
type Config struct {
	Candles   ports.CandleProvider
	News      ports.NewsRepository
	Logger    ports.Logger
	Symbol    string
	Timeframe domain.Timeframe // defaults to M15
}

// NewAnalyzer creates an analyzer instance.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.Candles == nil || cfg.News == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for news Analyzer")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol is required for news Analyzer: %w", ports.ErrConfigurationError)
	}
	tf := cfg.Timeframe
	if tf == "" {
		tf = domain.TimeframeM15
	}
	return &Analyzer{candles: cfg.Candles, news: cfg.News, logger: cfg.Logger, symbol: cfg.Symbol, timeframe: tf}, nil
}

// Enrich computes, for each event, the close immediately before the event
// and the highest/lowest price within the look-ahead window after it,
// then persists the result. Pip excursions are recorded only when the
// extreme is favourable (high above the prior close, low below it).
// Events with no surrounding price data are left untouched.
func (a *Analyzer) Enrich(ctx context.Context, events []*domain.NewsEvent, pipMultiplier float64, lookahead time.Duration) error {
	if lookahead <= 0 {
		lookahead = 60 * time.Minute
	}
	a.logger.Info(ctx, "Enriching news events with price movement", map[string]interface{}{
		"count": len(events), "symbol": a.symbol, "lookaheadMinutes": lookahead.Minutes(),
	})

	for _, ev := range events {
		before, err := a.candles.LatestCandleBefore(ctx, a.symbol, a.timeframe, ev.Time)
		if err != nil {
			return fmt.Errorf("fetching candle before news %q: %w", ev.Name, err)
		}
		if before == nil {
			continue
		}
		closeBefore := before.Close
		ev.CloseBefore = &closeBefore

		window, err := a.candles.CandlesInRange(ctx, a.symbol, a.timeframe, ev.Time, ev.Time.Add(lookahead))
		if err != nil {
			return fmt.Errorf("fetching candles after news %q: %w", ev.Name, err)
		}

		var maxHigh, minLow float64
		var found bool
		for _, c := range window {
			if !c.Time.After(ev.Time) {
				continue // window is strictly after the event
			}
			if !found {
				maxHigh, minLow = c.High, c.Low
				found = true
				continue
			}
			maxHigh = math.Max(maxHigh, c.High)
			minLow = math.Min(minLow, c.Low)
		}

		if found {
			high, low := maxHigh, minLow
			ev.HighAfter = &high
			ev.LowAfter = &low
			if maxHigh > closeBefore {
				up := roundPips((maxHigh - closeBefore) * pipMultiplier)
				ev.PipsUp = &up
			}
			if minLow < closeBefore {
				down := roundPips((closeBefore - minLow) * pipMultiplier)
				ev.PipsDown = &down
			}
		}

		if err := a.news.UpdateNewsImpact(ctx, ev); err != nil {
			return fmt.Errorf("persisting news enrichment for %q: %w", ev.Name, err)
		}
	}
	return nil
}

// SimilarBefore returns prior occurrences of a news event, newest first.
// Exact name matches come from the repository; when none exist it falls
// back to a case-insensitive substring match over all stored events.
func (a *Analyzer) SimilarBefore(ctx context.Context, name string, t time.Time) ([]*domain.NewsEvent, error) {
	exact, err := a.news.NewsBefore(ctx, name, t)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact, nil
	}

	all, err := a.news.AllNews(ctx)
	if err != nil {
		return nil, err
	}
	return FindSimilar(filterBefore(all, t), name), nil
}

// FindSimilar filters events by exact name; when nothing matches it
// retries with a case-insensitive substring match.
func FindSimilar(events []*domain.NewsEvent, name string) []*domain.NewsEvent {
	var similar []*domain.NewsEvent
	for _, ev := range events {
		if ev.Name == name {
			similar = append(similar, ev)
		}
	}
	if len(similar) > 0 {
		return similar
	}

	lower := strings.ToLower(name)
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Name), lower) {
			similar = append(similar, ev)
		}
	}
	return similar
}

func filterBefore(events []*domain.NewsEvent, t time.Time) []*domain.NewsEvent {
	out := make([]*domain.NewsEvent, 0, len(events))
	for _, ev := range events {
		if ev.Time.Before(t) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out
}

func roundPips(v float64) float64 {
	return math.Round(v*10) / 10
}
