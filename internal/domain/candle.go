package domain

import "time"

// Timeframe identifies the fixed set of candle intervals the system stores.
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"
	TimeframeW1  Timeframe = "W1"
	TimeframeMN1 Timeframe = "MN1"
)

// Timeframes lists every supported interval, smallest first.
var Timeframes = []Timeframe{
	TimeframeM1, TimeframeM5, TimeframeM15, TimeframeM30,
	TimeframeH1, TimeframeH4, TimeframeD1, TimeframeW1, TimeframeMN1,
}

// IsValid reports whether tf is one of the supported timeframes.
func (tf Timeframe) IsValid() bool {
	for _, known := range Timeframes {
		if tf == known {
			return true
		}
	}
	return false
}

// Duration returns the bar length for the timeframe.
// Monthly bars are approximated as 30 days.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeM1:
		return time.Minute
	case TimeframeM5:
		return 5 * time.Minute
	case TimeframeM15:
		return 15 * time.Minute
	case TimeframeM30:
		return 30 * time.Minute
	case TimeframeH1:
		return time.Hour
	case TimeframeH4:
		return 4 * time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	case TimeframeW1:
		return 7 * 24 * time.Hour
	case TimeframeMN1:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Candle represents a single OHLCV price bar.
// (Symbol, timeframe, Time) uniquely identifies a candle; bars for a
// symbol+timeframe are totally ordered by Time with gaps permitted
// (weekends, holidays).
type Candle struct {
	Symbol string    // Trading symbol (e.g., "GBPUSD")
	Time   time.Time // Bar open time, second precision, broker-local clock
	Open   float64   // Opening price
	High   float64   // Highest price
	Low    float64   // Lowest price
	Close  float64   // Closing price
	Volume int64     // Tick volume
	Spread int64     // Spread in points
}
