package main

import (
	"context"
	"log"
	"os"
	"time"

	"fxbacktest/config"
	"fxbacktest/internal/adapters/logger"
	"fxbacktest/internal/adapters/sqlite"
	"fxbacktest/internal/news"
	"fxbacktest/internal/utils"
)

// import_news loads a calendar CSV into the news table and enriches each
// event with the price movement observed after it.
func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <news.csv>", os.Args[0])
	}
	newsFile := os.Args[1]

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

	// 4. Load and store the calendar events
	events, err := utils.ReadNewsFromCSV(newsFile, cfg.Location)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to read news file")
		log.Fatalf("FATAL: Failed to read news file: %v", err)
	}
	appLogger.Info(context.Background(), "News events loaded", map[string]interface{}{"file": newsFile, "count": len(events)})

	if err := repo.InsertNews(context.Background(), events); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to store news events")
		log.Fatalf("FATAL: Failed to store news events: %v", err)
	}

	// 5. Enrich with post-event price movement
	analyzer, err := news.NewAnalyzer(news.Config{
		Candles:   repo,
		News:      repo,
		Logger:    appLogger,
		Symbol:    cfg.Symbol,
		Timeframe: config.ReferenceTimeframe,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize news analyzer")
		log.Fatalf("FATAL: Failed to initialize news analyzer: %v", err)
	}

	lookahead := time.Duration(cfg.NewsLookaheadMins) * time.Minute
	if err := analyzer.Enrich(context.Background(), events, cfg.PipMultiplier(cfg.Symbol), lookahead); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: News enrichment failed")
		log.Fatalf("FATAL: News enrichment failed: %v", err)
	}

	appLogger.Info(context.Background(), "News import finished", map[string]interface{}{"events": len(events)})
}
