package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxbacktest/config"
	"fxbacktest/internal/backtest"
	"fxbacktest/internal/domain"
	"fxbacktest/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockCandleProvider struct {
	entryCandle *domain.Candle
	after       []*domain.Candle
}

func (m *mockCandleProvider) CandleAt(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time) (*domain.Candle, error) {
	if m.entryCandle != nil && m.entryCandle.Time.Equal(t) {
		return m.entryCandle, nil
	}
	return nil, nil
}

func (m *mockCandleProvider) CandlesAfter(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time, limit int) ([]*domain.Candle, error) {
	return m.after, nil
}

func (m *mockCandleProvider) CandlesInRange(ctx context.Context, symbol string, tf domain.Timeframe, from, to time.Time) ([]*domain.Candle, error) {
	return nil, nil
}

func (m *mockCandleProvider) LatestCandleBefore(ctx context.Context, symbol string, tf domain.Timeframe, t time.Time) (*domain.Candle, error) {
	return nil, nil
}

type mockEntryRepo struct {
	inserted  []*domain.SimulationOutcome
	insertErr error
}

func (m *mockEntryRepo) InsertTradeEntry(ctx context.Context, o *domain.SimulationOutcome) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, o)
	return int64(len(m.inserted)), nil
}

func (m *mockEntryRepo) TradeEntries(ctx context.Context, filters map[string]string) ([]*domain.SimulationOutcome, error) {
	return m.inserted, nil
}

type mockNewsRepo struct {
	around []*domain.NewsEvent
}

func (m *mockNewsRepo) InsertNews(ctx context.Context, events []*domain.NewsEvent) error { return nil }
func (m *mockNewsRepo) UpdateNewsImpact(ctx context.Context, event *domain.NewsEvent) error {
	return nil
}
func (m *mockNewsRepo) NewsAround(ctx context.Context, t time.Time, before, after time.Duration) ([]*domain.NewsEvent, error) {
	return m.around, nil
}
func (m *mockNewsRepo) NewsBefore(ctx context.Context, name string, t time.Time) ([]*domain.NewsEvent, error) {
	return nil, nil
}
func (m *mockNewsRepo) AllNews(ctx context.Context) ([]*domain.NewsEvent, error) { return nil, nil }

func testConfig() *config.Config {
	return &config.Config{
		Symbol:          "GBPUSD",
		StoplossSizes:   []int{20},
		TradeRatios:     []float64{2},
		PipScales:       map[string]float64{"GBPUSD": 0.0001},
		PipMultipliers:  map[string]float64{"GBPUSD": 10000},
		Location:        time.UTC,
		NewsHoursBefore: 6,
		NewsHoursAfter:  6,
	}
}

func winningProvider(start time.Time) *mockCandleProvider {
	return &mockCandleProvider{
		entryCandle: &domain.Candle{Symbol: "GBPUSD", Time: start, Open: 1.2000},
		after: []*domain.Candle{
			{Symbol: "GBPUSD", Time: start.Add(15 * time.Minute), High: 1.2090, Low: 1.2000},
		},
	}
}

func newTestService(t *testing.T, candles ports.CandleProvider, entries ports.TradeEntryRepository, news ports.NewsRepository, logger *mockLogger) *Service {
	t.Helper()
	sim, err := backtest.NewSimulator(backtest.Config{
		Candles:  candles,
		Logger:   logger,
		Location: time.UTC,
	})
	require.NoError(t, err)

	svc, err := NewService(testConfig(), logger, sim, entries, news)
	require.NoError(t, err)
	return svc
}

func testEntry() domain.EntrySpec {
	return domain.EntrySpec{
		Symbol: "GBPUSD", Day: "15/03/24", OpenTime: "09:00", Direction: domain.Long,
	}
}

func TestRunBacktestPersistsOutcomes(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	repo := &mockEntryRepo{}
	logger := &mockLogger{}
	svc := newTestService(t, winningProvider(start), repo, nil, logger)

	outcomes, err := svc.RunBacktest(context.Background(), testEntry())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.Winning, outcomes[0].Result)
	assert.Len(t, repo.inserted, 1)
}

func TestRunBacktestReturnsOutcomesWhenPersistenceFails(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	repo := &mockEntryRepo{insertErr: errors.New("disk full")}
	logger := &mockLogger{}
	svc := newTestService(t, winningProvider(start), repo, nil, logger)

	outcomes, err := svc.RunBacktest(context.Background(), testEntry())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.NotEmpty(t, logger.warnMsgs)
}

func TestRunBacktestDuplicateIsQuiet(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	repo := &mockEntryRepo{insertErr: ports.ErrDuplicateEntry}
	logger := &mockLogger{}
	svc := newTestService(t, winningProvider(start), repo, nil, logger)

	outcomes, err := svc.RunBacktest(context.Background(), testEntry())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	// A rerun hitting existing rows is expected; no warning.
	assert.Empty(t, logger.warnMsgs)
}

func TestRunBacktestWithoutPersistence(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, winningProvider(start), nil, nil, &mockLogger{})

	outcomes, err := svc.RunBacktest(context.Background(), testEntry())
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
}

func TestRunBatchSkipsFailedEntries(t *testing.T) {
	start := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	logger := &mockLogger{}
	svc := newTestService(t, winningProvider(start), &mockEntryRepo{}, nil, logger)

	good := testEntry()
	noData := testEntry()
	noData.OpenTime = "23:45" // no candle at this instant

	result, err := svc.RunBatch(context.Background(), []domain.EntrySpec{good, noData})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Outcomes, 1)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 1, result.Summary.TotalTrades)
	assert.Equal(t, 1, result.Summary.WinningTrades)
	assert.NotEmpty(t, logger.warnMsgs)
}

func TestRunBatchEmpty(t *testing.T) {
	svc := newTestService(t, &mockCandleProvider{}, nil, nil, &mockLogger{})

	result, err := svc.RunBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Zero(t, result.Failed)
	require.NotNil(t, result.Summary)
	assert.Zero(t, result.Summary.TotalTrades)
}

func TestNewsAroundEntry(t *testing.T) {
	events := []*domain.NewsEvent{{Name: "CPI y/y"}}
	svc := newTestService(t, &mockCandleProvider{}, nil, &mockNewsRepo{around: events}, &mockLogger{})

	got, err := svc.NewsAroundEntry(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestNewsAroundEntryWithoutRepo(t *testing.T) {
	svc := newTestService(t, &mockCandleProvider{}, nil, nil, &mockLogger{})

	got, err := svc.NewsAroundEntry(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, &mockLogger{}, nil, nil, nil)
	assert.Error(t, err)
}
