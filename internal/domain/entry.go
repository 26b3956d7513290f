package domain

// Direction is the side of a hypothetical trade entry.
type Direction string

const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == Long || d == Short
}

// EntrySpec is the trade hypothesis under test. It is constructed by the
// caller per simulation request and never persisted on its own; its fields
// are carried through to each SimulationOutcome for later grouping.
type EntrySpec struct {
	Symbol    string    // Trading symbol
	Day       string    // Calendar day, "dd/mm/yy"
	OpenTime  string    // Intended open time, "HH:MM"
	Direction Direction // Long or Short

	// Free-form classification tags. Empty values are allowed and simply
	// excluded from the matching aggregation group.
	H4             string // Higher-timeframe trend state
	H1             string // Mid-timeframe trend state
	M15            string // Lowest-timeframe structure
	EntryPoint     string // Confluence / entry-point type
	ImpactPosition string // Position relative to news impact
	NewsTypes      string // News types in play at entry
}
