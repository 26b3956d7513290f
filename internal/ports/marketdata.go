package ports

import (
	"context"
	"time"

	"fxbacktest/internal/domain"
)

// MarketDataClient defines the interface for the external historical-data
// acquisition layer. The core never retries these calls; failures surface
// as ErrDataSourceUnavailable (or a more specific sentinel) to the caller.
type MarketDataClient interface {
	// Ping checks connectivity to the data source.
	Ping(ctx context.Context) error
	// ServerTime retrieves the data source's current time.
	ServerTime(ctx context.Context) (time.Time, error)
	// CandlesRange fetches historical candles for symbol/timeframe within
	// [start, end), ascending by time.
	CandlesRange(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]*domain.Candle, error)
}
