package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"
	"fxbacktest/internal/timeutil"
)

// entryFilterColumns whitelists the columns TradeEntries may filter on.
var entryFilterColumns = map[string]bool{
	"day": true, "OpenTime": true, "ImpactPosition": true, "NewsTypes": true,
	"session": true, "position": true, "H4": true, "H1": true, "M15": true,
	"EntryPoint": true, "StoplossSize": true, "TradeRatio": true, "Result": true,
}

// InsertTradeEntry saves one simulation outcome as a flat row.
//
// Before inserting, resolved outcomes are pre-checked for an existing row
// with the same (StoplossSize, TradeRatio) whose [start, end] window
// overlaps; such inserts are rejected with ErrDuplicateEntry. The check
// is advisory, not transactional: the single-connection pool serializes
// writers.
func (r *Repository) InsertTradeEntry(ctx context.Context, o *domain.SimulationOutcome) (int64, error) {
	start := timeutil.FormatMinute(o.StartTime)
	end := domain.NotApplicable
	if !o.EndTime.IsZero() {
		end = timeutil.FormatMinute(o.EndTime)
	}

	if o.Resolved() {
		const overlapQuery = `
		SELECT id FROM trading_entries
		WHERE StoplossSize = ? AND TradeRatio = ?
		AND NOT (EndDatetime <= ? OR StartDatetime >= ?)
		LIMIT 1`
		var existingID int64
		err := r.db.QueryRowContext(ctx, overlapQuery, o.StoplossSize, o.TradeRatio, start, end).Scan(&existingID)
		switch {
		case err == nil:
			r.logger.Warn(ctx, "Overlapping trading entry exists", map[string]interface{}{
				"existingID": existingID, "stoplossSize": o.StoplossSize, "tradeRatio": o.TradeRatio,
				"start": start, "end": end,
			})
			return 0, fmt.Errorf("overlapping entry %d for SL=%d %s: %w", existingID, o.StoplossSize, o.TradeRatio, ports.ErrDuplicateEntry)
		case !errors.Is(err, sql.ErrNoRows):
			return 0, fmt.Errorf("failed overlap pre-check: %w: %v", ports.ErrQueryFailed, err)
		}
	}

	const query = `
	INSERT INTO trading_entries
		(day, OpenTime, ImpactPosition, NewsTypes, session, position,
		 H4, H1, M15, EntryPoint, StoplossSize, TradeRatio,
		 Closeday, CloseTime, Result, StartDatetime, EndDatetime, duration_hours)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		o.Entry.Day, o.Entry.OpenTime, o.Entry.ImpactPosition, o.Entry.NewsTypes,
		o.Session, string(o.Entry.Direction),
		o.Entry.H4, o.Entry.H1, o.Entry.M15, o.Entry.EntryPoint,
		o.StoplossSize, o.TradeRatio,
		o.CloseDay, o.CloseTime, string(o.Result), start, end, o.DurationHours)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trading entry for %s %s: %w: %v", o.Entry.Day, o.Entry.OpenTime, ports.ErrPersistenceFailed, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trading entry: %w: %v", ports.ErrPersistenceFailed, err)
	}
	r.logger.Debug(ctx, "Trading entry inserted", map[string]interface{}{"entryID": id, "result": o.Result})
	return id, nil
}

// TradeEntries retrieves stored outcomes matching the column filters.
// Empty filter values and unknown columns are ignored.
func (r *Repository) TradeEntries(ctx context.Context, filters map[string]string) ([]*domain.SimulationOutcome, error) {
	query := `
	SELECT day, OpenTime, ImpactPosition, NewsTypes, session, position,
	       H4, H1, M15, EntryPoint, StoplossSize, TradeRatio,
	       Closeday, CloseTime, Result, StartDatetime, EndDatetime, duration_hours
	FROM trading_entries`

	var conditions []string
	var args []interface{}
	for col, val := range filters {
		if val == "" || !entryFilterColumns[col] {
			continue
		}
		conditions = append(conditions, col+" = ?")
		args = append(args, val)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY StartDatetime ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trading entries: %w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	outcomes := make([]*domain.SimulationOutcome, 0)
	for rows.Next() {
		o, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trading entry: %w: %v", ports.ErrQueryFailed, err)
		}
		outcomes = append(outcomes, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trading entry rows: %w: %v", ports.ErrQueryFailed, err)
	}
	return outcomes, nil
}

// scanEntry scans a row back into a domain.SimulationOutcome.
func (r *Repository) scanEntry(s scanner) (*domain.SimulationOutcome, error) {
	o := &domain.SimulationOutcome{}
	var position, result, start, end string
	err := s.Scan(
		&o.Entry.Day, &o.Entry.OpenTime, &o.Entry.ImpactPosition, &o.Entry.NewsTypes,
		&o.Session, &position,
		&o.Entry.H4, &o.Entry.H1, &o.Entry.M15, &o.Entry.EntryPoint,
		&o.StoplossSize, &o.TradeRatio,
		&o.CloseDay, &o.CloseTime, &result, &start, &end, &o.DurationHours)
	if err != nil {
		return nil, err
	}
	o.Entry.Direction = domain.Direction(position)
	o.Result = domain.Result(result)

	if o.StartTime, err = timeutil.ParseMinute(start, r.loc); err != nil {
		return nil, err
	}
	if end != domain.NotApplicable && end != "" {
		if o.EndTime, err = timeutil.ParseMinute(end, r.loc); err != nil {
			return nil, err
		}
	}
	return o, nil
}
