package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"
	"fxbacktest/internal/timeutil"
)

// InsertCandles bulk-inserts candles for one timeframe inside a single
// transaction, skipping rows that collide on (symbol, time). Returns the
// number of rows actually written.
func (r *Repository) InsertCandles(ctx context.Context, tf domain.Timeframe, candles []*domain.Candle) (int64, error) {
	table, err := candleTable(tf)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin candle insert transaction: %w: %v", ports.ErrPersistenceFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
	INSERT OR IGNORE INTO %s (symbol, time, open, high, low, close, volume, spread)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare candle insert: %w: %v", ports.ErrPersistenceFailed, err)
	}
	defer stmt.Close()

	var inserted int64
	for _, c := range candles {
		res, err := stmt.ExecContext(ctx,
			c.Symbol, timeutil.FormatDB(c.Time), c.Open, c.High, c.Low, c.Close, c.Volume, c.Spread)
		if err != nil {
			return 0, fmt.Errorf("failed to insert candle %s %s: %w: %v", c.Symbol, c.Time, ports.ErrPersistenceFailed, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit candle insert: %w: %v", ports.ErrPersistenceFailed, err)
	}
	r.logger.Debug(ctx, "Candles inserted", map[string]interface{}{"timeframe": tf, "requested": len(candles), "inserted": inserted})
	return inserted, nil
}

// CandleAt retrieves the candle whose timestamp exactly equals t.
func (r *Repository) CandleAt(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time) (*domain.Candle, error) {
	table, err := candleTable(tf)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
	SELECT symbol, time, open, high, low, close, volume, spread
	FROM %s WHERE symbol = ? AND time = ?`, table)

	row := r.db.QueryRowContext(ctx, query, symbol, timeutil.FormatDB(t))
	candle, err := r.scanCandle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No candle at requested time", map[string]interface{}{"symbol": symbol, "timeframe": tf, "time": timeutil.FormatDB(t)})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query candle for %s at %s: %w: %v", symbol, timeutil.FormatDB(t), ports.ErrQueryFailed, err)
	}
	return candle, nil
}

// CandlesAfter retrieves candles strictly after t, ascending.
// limit <= 0 means unbounded: the scan continues until data is exhausted.
func (r *Repository) CandlesAfter(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time, limit int) ([]*domain.Candle, error) {
	table, err := candleTable(tf)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
	SELECT symbol, time, open, high, low, close, volume, spread
	FROM %s WHERE symbol = ? AND time > ?
	ORDER BY time ASC`, table)
	args := []interface{}{symbol, timeutil.FormatDB(t)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryCandles(ctx, query, args...)
}

// CandlesInRange retrieves candles with from <= time <= to, ascending.
func (r *Repository) CandlesInRange(ctx context.Context, symbol string, tf domain.Timeframe, from, to time.Time) ([]*domain.Candle, error) {
	table, err := candleTable(tf)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
	SELECT symbol, time, open, high, low, close, volume, spread
	FROM %s WHERE symbol = ? AND time >= ? AND time <= ?
	ORDER BY time ASC`, table)
	return r.queryCandles(ctx, query, symbol, timeutil.FormatDB(from), timeutil.FormatDB(to))
}

// LatestCandleBefore retrieves the newest candle strictly before t.
func (r *Repository) LatestCandleBefore(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time) (*domain.Candle, error) {
	table, err := candleTable(tf)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
	SELECT symbol, time, open, high, low, close, volume, spread
	FROM %s WHERE symbol = ? AND time < ?
	ORDER BY time DESC LIMIT 1`, table)

	row := r.db.QueryRowContext(ctx, query, symbol, timeutil.FormatDB(t))
	candle, err := r.scanCandle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest candle before %s for %s: %w: %v", timeutil.FormatDB(t), symbol, ports.ErrQueryFailed, err)
	}
	return candle, nil
}

func (r *Repository) queryCandles(ctx context.Context, query string, args ...interface{}) ([]*domain.Candle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	candles := make([]*domain.Candle, 0)
	for rows.Next() {
		candle, err := r.scanCandle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candle row: %w: %v", ports.ErrQueryFailed, err)
		}
		candles = append(candles, candle)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candle rows: %w: %v", ports.ErrQueryFailed, err)
	}
	return candles, nil
}

// scanCandle scans a row into a domain.Candle struct.
func (r *Repository) scanCandle(s scanner) (*domain.Candle, error) {
	c := &domain.Candle{}
	var timeStr string
	err := s.Scan(&c.Symbol, &timeStr, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Spread)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	c.Time, err = timeutil.ParseDB(timeStr, r.loc)
	if err != nil {
		return nil, err
	}
	return c, nil
}
