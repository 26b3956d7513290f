package main

import (
	"context"
	"log"
	"time"

	"fxbacktest/config"
	"fxbacktest/internal/adapters/binanceclient"
	"fxbacktest/internal/adapters/logger"
	"fxbacktest/internal/adapters/sqlite"
)

// fetch_candles backfills the local candle archive from the market data
// source for every configured timeframe.
func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath:   cfg.DBPath,
		Logger:   appLogger,
		Location: cfg.Location,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Market Data Client
	client, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data client")
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}
	if err := client.Ping(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Market data source unreachable")
		log.Fatalf("FATAL: Market data source unreachable: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -cfg.HistoryDays)
	appLogger.Info(context.Background(), "Backfilling candle history", map[string]interface{}{
		"symbol": cfg.Symbol, "from": start.Format("2006-01-02"), "to": end.Format("2006-01-02"),
		"timeframes": len(cfg.FetchTimeframes),
	})

	for _, tf := range cfg.FetchTimeframes {
		candles, err := client.CandlesRange(context.Background(), cfg.Symbol, tf, start, end)
		if err != nil {
			appLogger.Error(context.Background(), err, "Error fetching candles", map[string]interface{}{"timeframe": tf})
			log.Fatalf("Error fetching %s candles: %v", tf, err)
		}

		inserted, err := repo.InsertCandles(context.Background(), tf, candles)
		if err != nil {
			appLogger.Error(context.Background(), err, "Error storing candles", map[string]interface{}{"timeframe": tf})
			log.Fatalf("Error storing %s candles: %v", tf, err)
		}
		appLogger.Info(context.Background(), "Timeframe stored", map[string]interface{}{
			"timeframe": tf, "fetched": len(candles), "inserted": inserted,
		})
	}

	appLogger.Info(context.Background(), "Candle backfill finished")
}
