package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fxbacktest/internal/adapters/logger" // Import the logger package for LogLevel
	"fxbacktest/internal/domain"
)

// Default per-symbol pip tables. PipScales converts a pip count into a raw
// price distance; PipMultipliers converts a raw price distance into pips.
// Both can be overridden per symbol via the PIP_SCALES / PIP_MULTIPLIERS
// env vars ("SYMBOL:value,SYMBOL:value").
var (
	defaultPipScales = map[string]float64{
		"GBPJPY": 0.01,
		"GBPUSD": 0.0001,
		"EURUSD": 0.0001,
		"AUDUSD": 0.0001,
		"XAUUSD": 0.1,
		"EURGBP": 0.0001,
		"EURAUD": 0.0001,
		"EURJPY": 0.01,
		"USDJPY": 0.01,
	}
	defaultPipMultipliers = map[string]float64{
		"GBPJPY": 100,
		"GBPUSD": 10000,
		"EURUSD": 10000,
		"AUDUSD": 10000,
		"XAUUSD": 10,
		"EURGBP": 10000,
		"EURAUD": 10000,
		"EURJPY": 100,
		"USDJPY": 100,
	}
)

// ReferenceTimeframe is the fixed timeframe all simulations run against.
const ReferenceTimeframe = domain.TimeframeM15

// Config holds all application configuration. It is constructed once by
// LoadConfig and passed explicitly into each component; there is no global
// configuration state.
type Config struct {
	// Database
	DBPath string

	// Trading Parameters
	Symbol         string
	StoplossSizes  []int     // Default stop-loss grid, in pips
	TradeRatios    []float64 // Default reward-ratio grid
	PipScales      map[string]float64
	PipMultipliers map[string]float64

	// Timestamp interpretation
	Timezone string
	Location *time.Location

	// News analysis
	NewsHoursBefore   int
	NewsHoursAfter    int
	NewsLookaheadMins int

	// Market data acquisition (fetch command)
	APIKey          string
	SecretKey       string
	IsTestnet       bool
	HistoryDays     int
	FetchTimeframes []domain.Timeframe

	// Logging
	LogLevel logger.LogLevel
}

// PipScale returns the pip-to-price multiplier for a symbol.
func (c *Config) PipScale(symbol string) float64 {
	if v, ok := c.PipScales[symbol]; ok {
		return v
	}
	return 0.0001
}

// PipMultiplier returns the price-to-pips multiplier for a symbol.
func (c *Config) PipMultiplier(symbol string) float64 {
	if v, ok := c.PipMultipliers[symbol]; ok {
		return v
	}
	return 10000
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/backtest.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Trading Parameters
	cfg.Symbol = getEnv("SYMBOL", "GBPUSD")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.StoplossSizes, err = getEnvAsIntList("STOPLOSS_SIZES", []int{20, 25, 30})
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOPLOSS_SIZES: %v", err))
	} else {
		for _, sl := range cfg.StoplossSizes {
			if sl <= 0 {
				errs = append(errs, "STOPLOSS_SIZES values must be positive")
				break
			}
		}
	}

	cfg.TradeRatios, err = getEnvAsFloatList("TRADE_RATIOS", []float64{2, 3, 4, 5})
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TRADE_RATIOS: %v", err))
	} else {
		for _, r := range cfg.TradeRatios {
			if r <= 0 {
				errs = append(errs, "TRADE_RATIOS values must be positive")
				break
			}
		}
	}

	cfg.PipScales, err = getEnvAsSymbolMap("PIP_SCALES", defaultPipScales)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PIP_SCALES: %v", err))
	}
	cfg.PipMultipliers, err = getEnvAsSymbolMap("PIP_MULTIPLIERS", defaultPipMultipliers)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PIP_MULTIPLIERS: %v", err))
	}

	// Timezone for interpreting candle and entry timestamps
	cfg.Timezone = getEnv("TIMEZONE", "Etc/GMT-5")
	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEZONE %q: %v", cfg.Timezone, err))
	}

	// News analysis window
	cfg.NewsHoursBefore = getEnvAsInt("NEWS_HOURS_BEFORE", 6)
	cfg.NewsHoursAfter = getEnvAsInt("NEWS_HOURS_AFTER", 6)
	if cfg.NewsHoursBefore < 0 || cfg.NewsHoursAfter < 0 {
		errs = append(errs, "NEWS_HOURS_BEFORE/NEWS_HOURS_AFTER cannot be negative")
	}
	cfg.NewsLookaheadMins = getEnvAsInt("NEWS_LOOKAHEAD_MINUTES", 60)
	if cfg.NewsLookaheadMins <= 0 {
		errs = append(errs, "NEWS_LOOKAHEAD_MINUTES must be positive")
	}

	// Market data acquisition
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true)
	cfg.HistoryDays = getEnvAsInt("HISTORY_DAYS", 730)
	if cfg.HistoryDays <= 0 {
		errs = append(errs, "HISTORY_DAYS must be positive")
	}

	tfNames, err := getEnvAsStringList("FETCH_TIMEFRAMES", []string{"M5", "M15", "H1", "H4", "D1"})
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FETCH_TIMEFRAMES: %v", err))
	}
	for _, name := range tfNames {
		tf := domain.Timeframe(name)
		if !tf.IsValid() {
			errs = append(errs, fmt.Sprintf("unknown timeframe %q in FETCH_TIMEFRAMES", name))
			continue
		}
		cfg.FetchTimeframes = append(cfg.FetchTimeframes, tf)
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsStringList(key string, defaultValue []string) ([]string, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty element in %s", key)
		}
		out = append(out, part)
	}
	return out, nil
}

func getEnvAsIntList(key string, defaultValue []int) ([]int, error) {
	parts, err := getEnvAsStringList(key, nil)
	if err != nil {
		return nil, err
	}
	if parts == nil {
		return defaultValue, nil
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q in %s: %w", part, key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func getEnvAsFloatList(key string, defaultValue []float64) ([]float64, error) {
	parts, err := getEnvAsStringList(key, nil)
	if err != nil {
		return nil, err
	}
	if parts == nil {
		return defaultValue, nil
	}
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q in %s: %w", part, key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// getEnvAsSymbolMap parses "SYMBOL:value,SYMBOL:value" overrides on top of
// the provided defaults.
func getEnvAsSymbolMap(key string, defaults map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return out, nil
	}
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("expected SYMBOL:value, got %q", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for symbol %q: %w", kv[1], kv[0], err)
		}
		out[strings.ToUpper(strings.TrimSpace(kv[0]))] = v
	}
	return out, nil
}
