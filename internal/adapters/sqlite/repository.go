package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.CandleRepository, ports.NewsRepository and
// ports.TradeEntryRepository using SQLite. Timestamps are stored as TEXT
// in the db layout and interpreted in the configured location.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
	loc    *time.Location
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath   string
	Logger   ports.Logger
	Location *time.Location // Timezone for timestamp interpretation; UTC if nil
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/backtest.db" // Default path
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %v", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Set connection pool settings (important for SQLite)
	db.SetMaxOpenConns(1) // The core assumes one exclusive session per call; serialize here
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger, loc: loc}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist. The layout mirrors
// the historical store this tool is compatible with: one candle table per
// timeframe, a News table with enrichment columns, and a flat
// trading_entries table.
func (r *Repository) initializeSchema(ctx context.Context) error {
	var sb strings.Builder
	for _, tf := range domain.Timeframes {
		sb.WriteString(fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS candle_%s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		time TEXT NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		spread INTEGER NOT NULL,
		UNIQUE(symbol, time)
	);
	`, tf))
	}

	sb.WriteString(`
	CREATE TABLE IF NOT EXISTS News (
		id INTEGER PRIMARY KEY,
		time TEXT NOT NULL,
		impact TEXT NOT NULL,
		currency TEXT NOT NULL,
		news TEXT NOT NULL,
		actual TEXT,
		forecast TEXT,
		previous TEXT,
		close_before TEXT,
		high_after TEXT,
		low_after TEXT,
		Pips_Highest_Shadow TEXT,
		Pips_Lowest_Shadow TEXT
	);

	CREATE TABLE IF NOT EXISTS trading_entries (
		id INTEGER PRIMARY KEY,
		day TEXT,
		OpenTime TEXT,
		ImpactPosition TEXT,
		NewsTypes TEXT,
		session TEXT,
		position TEXT,
		H4 TEXT,
		H1 TEXT,
		M15 TEXT,
		EntryPoint TEXT,
		StoplossSize INTEGER,
		TradeRatio TEXT,
		Closeday TEXT,
		CloseTime TEXT,
		Result TEXT,
		StartDatetime TEXT,
		EndDatetime TEXT,
		duration_hours REAL
	);
	CREATE INDEX IF NOT EXISTS idx_news_time ON News (time);
	CREATE INDEX IF NOT EXISTS idx_trading_entries_window ON trading_entries (StoplossSize, TradeRatio, StartDatetime, EndDatetime);
	`)

	if _, err := r.db.ExecContext(ctx, sb.String()); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// candleTable maps a timeframe to its table name, guarding against
// anything that is not one of the fixed enumerated timeframes.
func candleTable(tf domain.Timeframe) (string, error) {
	if !tf.IsValid() {
		return "", fmt.Errorf("unknown timeframe %q: %w", tf, ports.ErrInvalidRequest)
	}
	return "candle_" + string(tf), nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
