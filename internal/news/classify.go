package news

import (
	"strings"

	"fxbacktest/internal/domain"
)

// Classification is advisory metadata derived from an event's name,
// published impact and typical pip movement.
type Classification struct {
	Category    string
	Importance  string
	Volatility  string
	TradeAdvice string
}

// Keyword groups for recognising common economic indicators.
var categoryKeywords = []struct {
	category string
	terms    []string
}{
	{"Interest Rate Decision", []string{"Rate Decision", "Interest Rate Decision", "Cash Rate", "Policy Rate"}},
	{"Inflation Report", []string{"CPI", "Inflation", "Consumer Price", "PPI", "Producer Price"}},
	{"Employment Report", []string{"NFP", "Non-Farm", "Employment Change", "Unemployment", "Jobless Claims"}},
	{"GDP Report", []string{"GDP", "Gross Domestic Product"}},
	{"Manufacturing Report", []string{"PMI", "Manufacturing", "Industrial Production"}},
	{"Retail Sales", []string{"Retail Sales", "Consumer Spending"}},
	{"Sentiment Indicator", []string{"Consumer Confidence", "Consumer Sentiment", "Business Confidence"}},
	{"Central Bank Communication", []string{"Fed", "Federal Reserve", "ECB", "BOE", "BOJ", "RBA", "RBNZ", "FOMC"}},
}

// Classify buckets a news event by category, importance and expected
// volatility, with a coarse trading recommendation.
func Classify(name string, impact domain.ImpactLevel, pipMovement float64) Classification {
	c := Classification{
		Category:    "Other",
		Importance:  "Low",
		Volatility:  "Low",
		TradeAdvice: "No specific advice",
	}

	for _, group := range categoryKeywords {
		for _, term := range group.terms {
			if strings.Contains(name, term) {
				c.Category = group.category
				break
			}
		}
		if c.Category != "Other" {
			break
		}
	}

	switch impact {
	case domain.ImpactHigh:
		c.Importance = "High"
	case domain.ImpactMedium:
		c.Importance = "Medium"
	}

	switch {
	case pipMovement >= 50:
		c.Volatility = "Very High"
		c.TradeAdvice = "Consider staying out of the market or using very wide stops"
	case pipMovement >= 30:
		c.Volatility = "High"
		c.TradeAdvice = "Use wider stops than usual and reduced position size"
	case pipMovement >= 15:
		c.Volatility = "Medium"
		c.TradeAdvice = "Use standard stops but be cautious"
	default:
		c.Volatility = "Low"
		c.TradeAdvice = "Normal trading conditions expected"
	}

	return c
}
