package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"
	"fxbacktest/internal/timeutil"
)

// InsertNews saves a batch of news events inside one transaction and
// assigns the generated row IDs back onto the events.
func (r *Repository) InsertNews(ctx context.Context, events []*domain.NewsEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin news insert transaction: %w: %v", ports.ErrPersistenceFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO News (time, impact, currency, news, actual, forecast, previous)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare news insert: %w: %v", ports.ErrPersistenceFailed, err)
	}
	defer stmt.Close()

	for _, ev := range events {
		res, err := stmt.ExecContext(ctx,
			timeutil.FormatDB(ev.Time), string(ev.Impact), ev.Currency, ev.Name,
			nullIfEmpty(ev.Actual), nullIfEmpty(ev.Forecast), nullIfEmpty(ev.Previous))
		if err != nil {
			return fmt.Errorf("failed to insert news event %q at %s: %w: %v", ev.Name, ev.Time, ports.ErrPersistenceFailed, err)
		}
		ev.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID for news event %q: %w: %v", ev.Name, ports.ErrPersistenceFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit news insert: %w: %v", ports.ErrPersistenceFailed, err)
	}
	r.logger.Debug(ctx, "News events inserted", map[string]interface{}{"count": len(events)})
	return nil
}

// UpdateNewsImpact writes the enrichment fields of one event. Price
// levels are stored with 5 decimals, pip excursions with 1, matching the
// historical text layout.
func (r *Repository) UpdateNewsImpact(ctx context.Context, ev *domain.NewsEvent) error {
	const query = `
	UPDATE News SET
		close_before = ?,
		high_after = ?,
		low_after = ?,
		Pips_Highest_Shadow = ?,
		Pips_Lowest_Shadow = ?
	WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		formatPrice(ev.CloseBefore), formatPrice(ev.HighAfter), formatPrice(ev.LowAfter),
		formatPips(ev.PipsUp), formatPips(ev.PipsDown), ev.ID)
	if err != nil {
		return fmt.Errorf("failed to update news impact for ID %d: %w: %v", ev.ID, ports.ErrUpdateFailed, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for news ID %d: %w: %v", ev.ID, ports.ErrUpdateFailed, err)
	}
	if affected == 0 {
		return fmt.Errorf("news event ID %d not found for update: %w", ev.ID, ports.ErrNotFound)
	}
	return nil
}

// NewsAround retrieves events within [t-before, t+after], ascending.
func (r *Repository) NewsAround(ctx context.Context, t time.Time, before, after time.Duration) ([]*domain.NewsEvent, error) {
	const query = `
	SELECT id, time, impact, currency, news,
	       COALESCE(actual, ''), COALESCE(forecast, ''), COALESCE(previous, ''),
	       close_before, high_after, low_after, Pips_Highest_Shadow, Pips_Lowest_Shadow
	FROM News WHERE time BETWEEN ? AND ?
	ORDER BY time ASC`
	return r.queryNews(ctx, query, timeutil.FormatDB(t.Add(-before)), timeutil.FormatDB(t.Add(after)))
}

// NewsBefore retrieves exact-name matches strictly before t, newest first.
func (r *Repository) NewsBefore(ctx context.Context, name string, t time.Time) ([]*domain.NewsEvent, error) {
	const query = `
	SELECT id, time, impact, currency, news,
	       COALESCE(actual, ''), COALESCE(forecast, ''), COALESCE(previous, ''),
	       close_before, high_after, low_after, Pips_Highest_Shadow, Pips_Lowest_Shadow
	FROM News WHERE news = ? AND time < ?
	ORDER BY time DESC`
	return r.queryNews(ctx, query, name, timeutil.FormatDB(t))
}

// AllNews retrieves every stored event, ascending by time.
func (r *Repository) AllNews(ctx context.Context) ([]*domain.NewsEvent, error) {
	const query = `
	SELECT id, time, impact, currency, news,
	       COALESCE(actual, ''), COALESCE(forecast, ''), COALESCE(previous, ''),
	       close_before, high_after, low_after, Pips_Highest_Shadow, Pips_Lowest_Shadow
	FROM News ORDER BY time ASC`
	return r.queryNews(ctx, query)
}

func (r *Repository) queryNews(ctx context.Context, query string, args ...interface{}) ([]*domain.NewsEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news events: %w: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	events := make([]*domain.NewsEvent, 0)
	for rows.Next() {
		ev, err := r.scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w: %v", ports.ErrQueryFailed, err)
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating news rows: %w: %v", ports.ErrQueryFailed, err)
	}
	return events, nil
}

// scanNews scans a row into a domain.NewsEvent struct.
func (r *Repository) scanNews(s scanner) (*domain.NewsEvent, error) {
	ev := &domain.NewsEvent{}
	var timeStr, impact string
	var closeBefore, highAfter, lowAfter, pipsUp, pipsDown sql.NullString
	err := s.Scan(&ev.ID, &timeStr, &impact, &ev.Currency, &ev.Name,
		&ev.Actual, &ev.Forecast, &ev.Previous,
		&closeBefore, &highAfter, &lowAfter, &pipsUp, &pipsDown)
	if err != nil {
		return nil, err
	}
	ev.Time, err = timeutil.ParseDB(timeStr, r.loc)
	if err != nil {
		return nil, err
	}
	ev.Impact = domain.ImpactLevel(impact)
	ev.CloseBefore = parseFloatField(closeBefore)
	ev.HighAfter = parseFloatField(highAfter)
	ev.LowAfter = parseFloatField(lowAfter)
	ev.PipsUp = parseFloatField(pipsUp)
	ev.PipsDown = parseFloatField(pipsDown)
	return ev, nil
}

// --- Field formatting helpers ---

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatPrice(v *float64) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strconv.FormatFloat(*v, 'f', 5, 64), Valid: true}
}

func formatPips(v *float64) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strconv.FormatFloat(*v, 'f', 1, 64), Valid: true}
}

func parseFloatField(ns sql.NullString) *float64 {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v, err := strconv.ParseFloat(ns.String, 64)
	if err != nil {
		return nil
	}
	return &v
}
