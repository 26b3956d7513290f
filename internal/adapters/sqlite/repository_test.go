package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "fxbacktest-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath:   dbPath,
		Logger:   &mockLogger{},
		Location: time.UTC,
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func m15(n int) time.Time {
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(n) * 15 * time.Minute)
}

func testCandle(n int) *domain.Candle {
	return &domain.Candle{
		Symbol: "GBPUSD",
		Time:   m15(n),
		Open:   1.2000 + float64(n)*0.0010,
		High:   1.2020 + float64(n)*0.0010,
		Low:    1.1990 + float64(n)*0.0010,
		Close:  1.2010 + float64(n)*0.0010,
		Volume: 100 + int64(n),
		Spread: 12,
	}
}

func TestInsertCandlesAndCandleAt(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	candles := []*domain.Candle{testCandle(0), testCandle(1), testCandle(2)}
	inserted, err := repo.InsertCandles(ctx, domain.TimeframeM15, candles)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)

	got, err := repo.CandleAt(ctx, "GBPUSD", domain.TimeframeM15, m15(1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "GBPUSD", got.Symbol)
	assert.True(t, got.Time.Equal(m15(1)))
	assert.InDelta(t, 1.2010, got.Open, 1e-9)
	assert.Equal(t, int64(101), got.Volume)
	assert.Equal(t, int64(12), got.Spread)

	// No candle at an off-grid instant.
	missing, err := repo.CandleAt(ctx, "GBPUSD", domain.TimeframeM15, m15(1).Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertCandlesSkipsDuplicates(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.InsertCandles(ctx, domain.TimeframeM15, []*domain.Candle{testCandle(0)})
	require.NoError(t, err)

	// Re-inserting the same (symbol, time) is silently ignored.
	inserted, err := repo.InsertCandles(ctx, domain.TimeframeM15, []*domain.Candle{testCandle(0), testCandle(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
}

func TestInsertCandlesRejectsUnknownTimeframe(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.InsertCandles(context.Background(), "M7", []*domain.Candle{testCandle(0)})
	assert.True(t, errors.Is(err, ports.ErrInvalidRequest))
}

func TestCandlesAfter(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	candles := []*domain.Candle{testCandle(0), testCandle(1), testCandle(2), testCandle(3)}
	_, err := repo.InsertCandles(ctx, domain.TimeframeM15, candles)
	require.NoError(t, err)

	// Strictly after: the candle at the boundary is excluded.
	got, err := repo.CandlesAfter(ctx, "GBPUSD", domain.TimeframeM15, m15(1), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Time.Equal(m15(2)))
	assert.True(t, got[1].Time.Equal(m15(3)))

	// Limit caps the result.
	got, err = repo.CandlesAfter(ctx, "GBPUSD", domain.TimeframeM15, m15(0), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Time.Equal(m15(1)))
}

func TestCandlesInRangeInclusive(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.InsertCandles(ctx, domain.TimeframeM15, []*domain.Candle{testCandle(0), testCandle(1), testCandle(2)})
	require.NoError(t, err)

	got, err := repo.CandlesInRange(ctx, "GBPUSD", domain.TimeframeM15, m15(0), m15(1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Time.Equal(m15(0)))
	assert.True(t, got[1].Time.Equal(m15(1)))
}

func TestLatestCandleBefore(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.InsertCandles(ctx, domain.TimeframeM15, []*domain.Candle{testCandle(0), testCandle(1)})
	require.NoError(t, err)

	// Strictly before: the candle at the instant itself does not count.
	got, err := repo.LatestCandleBefore(ctx, "GBPUSD", domain.TimeframeM15, m15(1))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Time.Equal(m15(0)))

	none, err := repo.LatestCandleBefore(ctx, "GBPUSD", domain.TimeframeM15, m15(0))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCandleTablesAreIsolatedPerTimeframe(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.InsertCandles(ctx, domain.TimeframeM15, []*domain.Candle{testCandle(0)})
	require.NoError(t, err)

	got, err := repo.CandleAt(ctx, "GBPUSD", domain.TimeframeH1, m15(0))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewsRoundTrip(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	events := []*domain.NewsEvent{
		{Time: m15(0), Impact: domain.ImpactHigh, Currency: "GBP", Name: "CPI y/y", Actual: "3.4%", Forecast: "3.5%", Previous: "4.0%"},
		{Time: m15(4), Impact: domain.ImpactMedium, Currency: "USD", Name: "Retail Sales"},
	}
	require.NoError(t, repo.InsertNews(ctx, events))
	assert.NotZero(t, events[0].ID)
	assert.NotZero(t, events[1].ID)

	all, err := repo.AllNews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CPI y/y", all[0].Name)
	assert.Equal(t, "3.4%", all[0].Actual)
	assert.Equal(t, domain.ImpactHigh, all[0].Impact)
	assert.True(t, all[0].Time.Equal(m15(0)))
	assert.Nil(t, all[0].CloseBefore) // not yet enriched
	assert.Empty(t, all[1].Actual)
}

func TestUpdateNewsImpact(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	ev := &domain.NewsEvent{Time: m15(0), Impact: domain.ImpactHigh, Currency: "GBP", Name: "CPI y/y"}
	require.NoError(t, repo.InsertNews(ctx, []*domain.NewsEvent{ev}))

	closeBefore, highAfter, lowAfter := 1.2000, 1.2055, 1.1980
	pipsUp, pipsDown := 55.0, 20.0
	ev.CloseBefore = &closeBefore
	ev.HighAfter = &highAfter
	ev.LowAfter = &lowAfter
	ev.PipsUp = &pipsUp
	ev.PipsDown = &pipsDown
	require.NoError(t, repo.UpdateNewsImpact(ctx, ev))

	all, err := repo.AllNews(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	require.NotNil(t, got.CloseBefore)
	assert.InDelta(t, 1.2000, *got.CloseBefore, 1e-9)
	require.NotNil(t, got.PipsUp)
	assert.InDelta(t, 55.0, *got.PipsUp, 1e-9)
	require.NotNil(t, got.PipsDown)
	assert.InDelta(t, 20.0, *got.PipsDown, 1e-9)
}

func TestUpdateNewsImpactUnknownID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.UpdateNewsImpact(context.Background(), &domain.NewsEvent{ID: 9999})
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestNewsAroundWindow(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	events := []*domain.NewsEvent{
		{Time: m15(0).Add(-7 * time.Hour), Impact: domain.ImpactLow, Currency: "GBP", Name: "Too early"},
		{Time: m15(0).Add(-2 * time.Hour), Impact: domain.ImpactHigh, Currency: "GBP", Name: "In window before"},
		{Time: m15(0).Add(3 * time.Hour), Impact: domain.ImpactHigh, Currency: "GBP", Name: "In window after"},
		{Time: m15(0).Add(8 * time.Hour), Impact: domain.ImpactLow, Currency: "GBP", Name: "Too late"},
	}
	require.NoError(t, repo.InsertNews(ctx, events))

	got, err := repo.NewsAround(ctx, m15(0), 6*time.Hour, 6*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "In window before", got[0].Name)
	assert.Equal(t, "In window after", got[1].Name)
}

func TestNewsBefore(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	events := []*domain.NewsEvent{
		{Time: m15(0).Add(-48 * time.Hour), Impact: domain.ImpactHigh, Currency: "GBP", Name: "CPI y/y"},
		{Time: m15(0).Add(-24 * time.Hour), Impact: domain.ImpactHigh, Currency: "GBP", Name: "CPI y/y"},
		{Time: m15(0).Add(-24 * time.Hour), Impact: domain.ImpactHigh, Currency: "GBP", Name: "Retail Sales"},
		{Time: m15(0), Impact: domain.ImpactHigh, Currency: "GBP", Name: "CPI y/y"}, // not strictly before
	}
	require.NoError(t, repo.InsertNews(ctx, events))

	got, err := repo.NewsBefore(ctx, "CPI y/y", m15(0))
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.True(t, got[0].Time.After(got[1].Time))
}

func testOutcome(result domain.Result, stoploss int, ratio string, start, end time.Time) *domain.SimulationOutcome {
	o := &domain.SimulationOutcome{
		Entry: domain.EntrySpec{
			Symbol: "GBPUSD", Day: "15/03/24", OpenTime: "09:00",
			Direction: domain.Long, H4: "Uptrend", H1: "Uptrend", M15: "Pullback", EntryPoint: "OB",
		},
		Session:      "Tokyo",
		StoplossSize: stoploss,
		TradeRatio:   ratio,
		Result:       result,
		StartTime:    start,
		EndTime:      end,
	}
	if result == domain.Inconclusive {
		o.CloseDay = domain.NotApplicable
		o.CloseTime = domain.NotApplicable
	} else {
		o.CloseDay = end.Format("02/01/06")
		o.CloseTime = end.Format("15:04")
		o.DurationHours = end.Sub(start).Hours()
	}
	return o
}

func TestInsertTradeEntryAndReadBack(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	o := testOutcome(domain.Winning, 20, "1:2", m15(0), m15(2))
	id, err := repo.InsertTradeEntry(ctx, o)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := repo.TradeEntries(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	back := got[0]
	assert.Equal(t, domain.Winning, back.Result)
	assert.Equal(t, 20, back.StoplossSize)
	assert.Equal(t, "1:2", back.TradeRatio)
	assert.Equal(t, domain.Long, back.Entry.Direction)
	assert.Equal(t, "Tokyo", back.Session)
	assert.Equal(t, "OB", back.Entry.EntryPoint)
	assert.True(t, back.StartTime.Equal(m15(0)))
	assert.True(t, back.EndTime.Equal(m15(2)))
	assert.InDelta(t, 0.5, back.DurationHours, 1e-9)
}

func TestInsertTradeEntryRejectsOverlap(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := testOutcome(domain.Winning, 20, "1:2", m15(0), m15(4))
	_, err := repo.InsertTradeEntry(ctx, first)
	require.NoError(t, err)

	// Same grid cell, overlapping window.
	overlapping := testOutcome(domain.Losing, 20, "1:2", m15(2), m15(6))
	_, err = repo.InsertTradeEntry(ctx, overlapping)
	assert.True(t, errors.Is(err, ports.ErrDuplicateEntry))

	// Same grid cell but disjoint window is fine.
	disjoint := testOutcome(domain.Winning, 20, "1:2", m15(8), m15(10))
	_, err = repo.InsertTradeEntry(ctx, disjoint)
	assert.NoError(t, err)

	// Overlapping window on a different grid cell is fine too.
	otherCell := testOutcome(domain.Winning, 25, "1:2", m15(2), m15(6))
	_, err = repo.InsertTradeEntry(ctx, otherCell)
	assert.NoError(t, err)
}

func TestInsertTradeEntryInconclusiveSkipsOverlapCheck(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	a := testOutcome(domain.Inconclusive, 20, "1:2", m15(0), time.Time{})
	b := testOutcome(domain.Inconclusive, 20, "1:2", m15(0), time.Time{})

	_, err := repo.InsertTradeEntry(ctx, a)
	require.NoError(t, err)
	_, err = repo.InsertTradeEntry(ctx, b)
	require.NoError(t, err)

	got, err := repo.TradeEntries(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].EndTime.IsZero())
	assert.Equal(t, domain.NotApplicable, got[0].CloseDay)
}

func TestTradeEntriesFilters(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.InsertTradeEntry(ctx, testOutcome(domain.Winning, 20, "1:2", m15(0), m15(1)))
	require.NoError(t, err)
	_, err = repo.InsertTradeEntry(ctx, testOutcome(domain.Losing, 25, "1:3", m15(8), m15(9)))
	require.NoError(t, err)

	got, err := repo.TradeEntries(ctx, map[string]string{"Result": "Winning"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Winning, got[0].Result)

	// Unknown columns and empty values are ignored, not errors.
	got, err = repo.TradeEntries(ctx, map[string]string{"nope; DROP TABLE": "x", "Result": ""})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
