// Package binanceclient adapts the go-binance futures API to the
// ports.MarketDataClient interface. It is the market-data acquisition
// collaborator: it only fetches history, it never trades.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	// Maximum klines per request allowed by the API.
	maxKlinesPerRequest = 1500
)

// intervalByTimeframe maps the domain timeframes onto Binance intervals.
var intervalByTimeframe = map[domain.Timeframe]string{
	domain.TimeframeM1:  "1m",
	domain.TimeframeM5:  "5m",
	domain.TimeframeM15: "15m",
	domain.TimeframeM30: "30m",
	domain.TimeframeH1:  "1h",
	domain.TimeframeH4:  "4h",
	domain.TimeframeD1:  "1d",
	domain.TimeframeW1:  "1w",
	domain.TimeframeMN1: "1M",
}

// Client implements ports.MarketDataClient using the go-binance library.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		// Historical klines are a public endpoint; keys are optional here.
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
	} else {
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL})

	return &Client{futuresClient: client, logger: cfg.Logger}, nil
}

// handleError translates Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var mappedErr error
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		switch apiErr.Code {
		case -1003:
			mappedErr = ports.ErrRateLimited
		case -1021:
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015:
			mappedErr = ports.ErrAuthenticationFailed
		case -1100, -1101, -1102, -1103, -1104, -1121:
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrDataSourceUnavailable
		}
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mappedErr = ports.ErrContextCanceled
	default:
		mappedErr = ports.ErrDataSourceUnavailable
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return fmt.Errorf("%s failed: %w: %v", operation, mappedErr, err)
}

// Ping checks connectivity to the data source.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, "Ping")
	}
	return nil
}

// ServerTime retrieves the data source's current time.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	ms, err := c.futuresClient.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.handleError(ctx, err, "ServerTime")
	}
	return time.UnixMilli(ms), nil
}

// CandlesRange fetches historical candles within [start, end), paging
// through the API limit until the range is covered.
func (c *Client) CandlesRange(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]*domain.Candle, error) {
	interval, ok := intervalByTimeframe[tf]
	if !ok {
		return nil, fmt.Errorf("unsupported timeframe %q: %w", tf, ports.ErrInvalidRequest)
	}

	var candles []*domain.Candle
	cursor := start

	for cursor.Before(end) {
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(cursor.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxKlinesPerRequest).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, "CandlesRange")
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			candle, err := toCandle(symbol, k)
			if err != nil {
				return nil, fmt.Errorf("converting kline for %s: %w", symbol, err)
			}
			candles = append(candles, candle)
		}

		last := time.UnixMilli(klines[len(klines)-1].OpenTime)
		next := last.Add(tf.Duration())
		if !next.After(cursor) {
			break // no forward progress; avoid spinning on bad data
		}
		cursor = next

		if len(klines) < maxKlinesPerRequest {
			break
		}
	}

	c.logger.Debug(ctx, "Fetched candle range", map[string]interface{}{
		"symbol": symbol, "timeframe": tf, "count": len(candles),
	})
	return candles, nil
}

// toCandle converts one Binance kline into a domain candle.
func toCandle(symbol string, k *futures.Kline) (*domain.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid low %q: %w", k.Low, err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid volume %q: %w", k.Volume, err)
	}

	return &domain.Candle{
		Symbol: symbol,
		Time:   time.UnixMilli(k.OpenTime),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: int64(volume),
		Spread: 0, // not provided by this source
	}, nil
}
