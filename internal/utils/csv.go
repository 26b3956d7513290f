package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"fxbacktest/internal/domain"
	"fxbacktest/internal/timeutil"
)

// ReadEntriesFromCSV loads trade entry specs from a CSV file.
//
// Expected columns (header row required):
//
//	symbol,day,open_time,position,h4,h1,m15,entry_point,impact_position,news_types
//
// day is "dd/mm/yy" and open_time is "HH:MM". The tag columns may be
// left empty.
func ReadEntriesFromCSV(filename string) ([]domain.EntrySpec, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("entries file %s has no data rows", filename)
	}

	col := indexColumns(records[0])
	entries := make([]domain.EntrySpec, 0, len(records)-1)
	for i, row := range records[1:] {
		entry := domain.EntrySpec{
			Symbol:         field(row, col, "symbol"),
			Day:            field(row, col, "day"),
			OpenTime:       field(row, col, "open_time"),
			Direction:      domain.Direction(field(row, col, "position")),
			H4:             field(row, col, "h4"),
			H1:             field(row, col, "h1"),
			M15:            field(row, col, "m15"),
			EntryPoint:     field(row, col, "entry_point"),
			ImpactPosition: field(row, col, "impact_position"),
			NewsTypes:      field(row, col, "news_types"),
		}
		if !entry.Direction.IsValid() {
			return nil, fmt.Errorf("row %d: unknown position %q", i+2, entry.Direction)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadNewsFromCSV loads calendar news events from a CSV file.
//
// Expected columns (header row required):
//
//	time,impact,currency,name,actual,forecast,previous
//
// time is "2006-01-02 15:04:05" and is interpreted in loc. Events are
// returned ascending by time.
func ReadNewsFromCSV(filename string, loc *time.Location) ([]*domain.NewsEvent, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("news file %s has no data rows", filename)
	}

	col := indexColumns(records[0])
	events := make([]*domain.NewsEvent, 0, len(records)-1)
	for i, row := range records[1:] {
		t, err := timeutil.ParseDB(field(row, col, "time"), loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		events = append(events, &domain.NewsEvent{
			Time:     t,
			Impact:   domain.ImpactLevel(field(row, col, "impact")),
			Currency: field(row, col, "currency"),
			Name:     field(row, col, "name"),
			Actual:   field(row, col, "actual"),
			Forecast: field(row, col, "forecast"),
			Previous: field(row, col, "previous"),
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	return events, nil
}

// WriteCandlesToCSV dumps candles to a CSV file for offline inspection.
func WriteCandlesToCSV(candles []*domain.Candle, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"time", "symbol", "open", "high", "low", "close", "volume", "spread"})

	for _, c := range candles {
		writer.Write([]string{
			timeutil.FormatDB(c.Time),
			c.Symbol,
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatInt(c.Volume, 10),
			strconv.FormatInt(c.Spread, 10),
		})
	}
	return writer.Error()
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
