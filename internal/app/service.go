// Package app wires the backtest core together: it owns the batch
// fan-out over entries, the statistics reduction, and the best-effort
// persistence of outcomes that the simulator deliberately does not do.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxbacktest/config"
	"fxbacktest/internal/analytics"
	"fxbacktest/internal/backtest"
	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"
)

// Service orchestrates backtest runs. Calls are synchronous: a run
// blocks while candles are scanned and returns the full outcome set.
type Service struct {
	cfg       *config.Config
	logger    ports.Logger
	simulator *backtest.Simulator
	entries   ports.TradeEntryRepository // nil disables persistence
	news      ports.NewsRepository       // nil disables news look-around
}

// NewService creates the application service.
func NewService(cfg *config.Config, logger ports.Logger, sim *backtest.Simulator, entries ports.TradeEntryRepository, news ports.NewsRepository) (*Service, error) {
	if cfg == nil || logger == nil || sim == nil {
		return nil, fmt.Errorf("missing required dependencies for Service")
	}
	return &Service{cfg: cfg, logger: logger, simulator: sim, entries: entries, news: news}, nil
}

// BatchResult bundles the outcomes of a batch run with their summary.
type BatchResult struct {
	Outcomes []*domain.SimulationOutcome
	Summary  *analytics.Summary
	Failed   int // entries that produced no outcomes
}

// RunBacktest simulates one entry against the configured stop-loss and
// reward-ratio grids, then persists each outcome. Persistence is
// best-effort: a failed insert is logged and the outcome set is still
// returned in full. Duplicate-overlap rejections are expected on reruns
// and logged at debug level only.
func (s *Service) RunBacktest(ctx context.Context, entry domain.EntrySpec) ([]*domain.SimulationOutcome, error) {
	outcomes, err := s.simulator.Simulate(ctx, entry,
		s.cfg.StoplossSizes, s.cfg.TradeRatios, s.cfg.PipScale(entry.Symbol))
	if err != nil {
		return nil, err
	}

	if s.entries != nil {
		for _, o := range outcomes {
			if _, err := s.entries.InsertTradeEntry(ctx, o); err != nil {
				if errors.Is(err, ports.ErrDuplicateEntry) {
					s.logger.Debug(ctx, "Skipping duplicate trading entry", map[string]interface{}{
						"stoplossSize": o.StoplossSize, "tradeRatio": o.TradeRatio,
					})
					continue
				}
				s.logger.Warn(ctx, "Failed to persist trading entry", map[string]interface{}{
					"error": err.Error(), "stoplossSize": o.StoplossSize, "tradeRatio": o.TradeRatio,
				})
			}
		}
	}
	return outcomes, nil
}

// RunBatch fans RunBacktest out over a list of entries and reduces every
// produced outcome into one summary. Entries that fail to simulate are
// logged and skipped; they do not abort the batch.
func (s *Service) RunBatch(ctx context.Context, entries []domain.EntrySpec) (*BatchResult, error) {
	s.logger.Info(ctx, "Running batch backtest", map[string]interface{}{"entries": len(entries)})

	result := &BatchResult{Outcomes: make([]*domain.SimulationOutcome, 0)}
	for _, entry := range entries {
		outcomes, err := s.RunBacktest(ctx, entry)
		if err != nil {
			result.Failed++
			s.logger.Warn(ctx, "Entry skipped", map[string]interface{}{
				"day": entry.Day, "openTime": entry.OpenTime, "error": err.Error(),
			})
			continue
		}
		result.Outcomes = append(result.Outcomes, outcomes...)
	}

	result.Summary = analytics.Summarize(result.Outcomes)
	return result, nil
}

// NewsAroundEntry returns the news events surrounding an entry time,
// using the configured look-around window.
func (s *Service) NewsAroundEntry(ctx context.Context, t time.Time) ([]*domain.NewsEvent, error) {
	if s.news == nil {
		return nil, nil
	}
	return s.news.NewsAround(ctx, t,
		time.Duration(s.cfg.NewsHoursBefore)*time.Hour,
		time.Duration(s.cfg.NewsHoursAfter)*time.Hour)
}
