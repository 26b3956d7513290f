package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"sort"

	"fxbacktest/config"
	"fxbacktest/internal/adapters/logger"
	"fxbacktest/internal/adapters/sqlite"
	"fxbacktest/internal/analytics"
	"fxbacktest/internal/app"
	"fxbacktest/internal/backtest"
	"fxbacktest/internal/utils"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <entries.csv>", os.Args[0])
	}
	entriesFile := os.Args[1]

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
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err) // Also log to stderr
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Simulator
	sim, err := backtest.NewSimulator(backtest.Config{
		Candles:   repo,
		Logger:    appLogger,
		Location:  cfg.Location,
		Timeframe: config.ReferenceTimeframe,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize simulator")
		log.Fatalf("FATAL: Failed to initialize simulator: %v", err)
	}

	// 5. Initialize Application Service
	service, err := app.NewService(cfg, appLogger, sim, repo, repo)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize backtest service")
		log.Fatalf("FATAL: Failed to initialize backtest service: %v", err)
	}

	// 6. Load entries and run the batch
	entries, err := utils.ReadEntriesFromCSV(entriesFile)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to read entries file")
		log.Fatalf("FATAL: Failed to read entries file: %v", err)
	}
	appLogger.Info(context.Background(), "Entries loaded", map[string]interface{}{"file": entriesFile, "count": len(entries)})

	result, err := service.RunBatch(context.Background(), entries)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Batch run failed")
		log.Fatalf("FATAL: Batch run failed: %v", err)
	}

	printSummary(result)
	printDrawdown(analytics.CalculateDrawdown(result.Outcomes))
}

func printSummary(result *app.BatchResult) {
	s := result.Summary
	fmt.Println()
	fmt.Println("=== Backtest Summary ===")
	fmt.Printf("Total trades:        %d\n", s.TotalTrades)
	fmt.Printf("Winning trades:      %d\n", s.WinningTrades)
	fmt.Printf("Losing trades:       %d\n", s.LosingTrades)
	fmt.Printf("Inconclusive trades: %d\n", s.InconclusiveTrades)
	fmt.Printf("Win rate:            %.2f%%\n", s.WinRate)
	fmt.Printf("Average duration:    %.1f hours\n", s.AverageDuration)
	if result.Failed > 0 {
		fmt.Printf("Entries skipped:     %d\n", result.Failed)
	}

	printGroup("By stop-loss size", s.ByStoploss)
	printGroup("By trade ratio", s.ByRatio)
	printGroup("By session", s.BySession)
	printGroup("By H4 trend", s.ByH4)
	printGroup("By H1 trend", s.ByH1)
	printGroup("By M15 structure", s.ByM15)
	printGroup("By entry point", s.ByEntryPoint)
}

func printGroup(title string, group map[string]*analytics.GroupStat) {
	if len(group) == 0 {
		return
	}
	keys := make([]string, 0, len(group))
	for k := range group {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s:\n", title)
	for _, k := range keys {
		g := group[k]
		fmt.Printf("  %-20s %3d trades, %3d wins, %6.2f%%\n", k, g.Total, g.Wins, g.WinRate)
	}
}

func printDrawdown(report *analytics.DrawdownReport) {
	fmt.Println()
	fmt.Println("=== Drawdown Report ===")
	fmt.Printf("Final balance:   %.2f\n", report.FinalBalance)
	fmt.Printf("Peak balance:    %.2f\n", report.PeakBalance)
	fmt.Printf("Max drawdown:    %.2f%%\n", report.MaxDrawdownPercent)
	if !report.MaxDrawdownEnd.IsZero() {
		start := "start of run"
		if !report.MaxDrawdownStart.IsZero() {
			start = report.MaxDrawdownStart.Format("2006-01-02 15:04")
		}
		fmt.Printf("Max drawdown window: %s -> %s\n", start, report.MaxDrawdownEnd.Format("2006-01-02 15:04"))
	}
	if len(report.DrawdownPeriods) > 0 {
		fmt.Printf("Recovered drawdown periods: %d\n", len(report.DrawdownPeriods))
		for _, p := range report.DrawdownPeriods {
			fmt.Printf("  %.2f%% deep, recovered by %s\n", p.Depth, p.End.Format("2006-01-02 15:04"))
		}
	}
}
