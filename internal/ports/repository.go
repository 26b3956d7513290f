package ports

import (
	"context"
	"time"

	"fxbacktest/internal/domain"
)

// CandleProvider is the read-only candle surface consumed by the
// simulator and the news analyzer. Implemented by the SQLite repository.
type CandleProvider interface {
	// CandleAt retrieves the candle whose timestamp exactly equals t.
	// Returns nil, nil if no such candle exists.
	CandleAt(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time) (*domain.Candle, error)
	// CandlesAfter retrieves candles strictly after t in ascending time
	// order. A limit of 0 means unbounded.
	CandlesAfter(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time, limit int) ([]*domain.Candle, error)
	// CandlesInRange retrieves candles with from <= time <= to, ascending.
	CandlesInRange(ctx context.Context, symbol string, tf domain.Timeframe, from, to time.Time) ([]*domain.Candle, error)
	// LatestCandleBefore retrieves the newest candle strictly before t.
	// Returns nil, nil if none exists.
	LatestCandleBefore(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time) (*domain.Candle, error)
}

// CandleRepository adds the write side used by the data-acquisition
// commands. Candles are immutable once written and never deleted here.
type CandleRepository interface {
	CandleProvider
	// InsertCandles bulk-inserts candles for one timeframe, silently
	// skipping rows that collide on (symbol, time).
	InsertCandles(ctx context.Context, tf domain.Timeframe, candles []*domain.Candle) (int64, error)
}

// NewsRepository stores and retrieves calendar news events.
type NewsRepository interface {
	// InsertNews saves a batch of news events, assigning IDs.
	InsertNews(ctx context.Context, events []*domain.NewsEvent) error
	// UpdateNewsImpact writes the enrichment fields of one event.
	UpdateNewsImpact(ctx context.Context, event *domain.NewsEvent) error
	// NewsAround retrieves events within [t-before, t+after], ascending.
	NewsAround(ctx context.Context, t time.Time, before, after time.Duration) ([]*domain.NewsEvent, error)
	// NewsBefore retrieves events with an exact name match strictly
	// before t, newest first. Fuzzy fallback is the news component's
	// concern, not the repository's.
	NewsBefore(ctx context.Context, name string, t time.Time) ([]*domain.NewsEvent, error)
	// AllNews retrieves every stored event, ascending by time.
	AllNews(ctx context.Context) ([]*domain.NewsEvent, error)
}

// TradeEntryRepository persists simulation outcomes as flat trading-entry
// rows. The overlap pre-check is advisory, not transactional: concurrent
// writers must be serialized by the repository implementation.
type TradeEntryRepository interface {
	// InsertTradeEntry saves one outcome row. Returns ErrDuplicateEntry
	// when an existing row shares (StoplossSize, TradeRatio) and overlaps
	// the [start, end] window.
	InsertTradeEntry(ctx context.Context, outcome *domain.SimulationOutcome) (int64, error)
	// TradeEntries retrieves stored outcomes matching the column filters
	// (empty filter values are ignored).
	TradeEntries(ctx context.Context, filters map[string]string) ([]*domain.SimulationOutcome, error)
}
