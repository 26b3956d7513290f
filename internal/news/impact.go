package news

import (
	"sort"

	"fxbacktest/internal/domain"
)

// Impact is the per-event-name summary of historical price displacement.
type Impact struct {
	Name string

	UpwardCount int
	UpwardMean  float64
	UpwardMax   float64

	DownwardCount int
	DownwardMean  float64
	DownwardMax   float64

	TypicalImpact domain.ImpactLevel // modal published impact level
	TotalCount    int
	AvgMovement   float64 // mean of the two directional means
}

// SummarizeImpact groups events whose upward or downward excursion is at
// least minPips by event name and computes count/mean/max per direction.
// Results are sorted descending by total count, then by average movement;
// name breaks remaining ties so the order is deterministic.
func SummarizeImpact(events []*domain.NewsEvent, minPips float64) []*Impact {
	type accumulator struct {
		impact         *Impact
		upSum, downSum float64
		impactCounts   map[domain.ImpactLevel]int
	}

	groups := make(map[string]*accumulator)

	for _, ev := range events {
		significant := (ev.PipsUp != nil && *ev.PipsUp >= minPips) ||
			(ev.PipsDown != nil && *ev.PipsDown >= minPips)
		if !significant {
			continue
		}

		acc, ok := groups[ev.Name]
		if !ok {
			acc = &accumulator{
				impact:       &Impact{Name: ev.Name},
				impactCounts: make(map[domain.ImpactLevel]int),
			}
			groups[ev.Name] = acc
		}
		acc.impactCounts[ev.Impact]++

		if ev.PipsUp != nil {
			acc.impact.UpwardCount++
			acc.upSum += *ev.PipsUp
			if *ev.PipsUp > acc.impact.UpwardMax {
				acc.impact.UpwardMax = *ev.PipsUp
			}
		}
		if ev.PipsDown != nil {
			acc.impact.DownwardCount++
			acc.downSum += *ev.PipsDown
			if *ev.PipsDown > acc.impact.DownwardMax {
				acc.impact.DownwardMax = *ev.PipsDown
			}
		}
	}

	impacts := make([]*Impact, 0, len(groups))
	for _, acc := range groups {
		im := acc.impact
		if im.UpwardCount > 0 {
			im.UpwardMean = acc.upSum / float64(im.UpwardCount)
		}
		if im.DownwardCount > 0 {
			im.DownwardMean = acc.downSum / float64(im.DownwardCount)
		}
		im.TypicalImpact = modalImpact(acc.impactCounts)
		im.TotalCount = im.UpwardCount + im.DownwardCount
		im.AvgMovement = (im.UpwardMean + im.DownwardMean) / 2
		impacts = append(impacts, im)
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		if impacts[i].TotalCount != impacts[j].TotalCount {
			return impacts[i].TotalCount > impacts[j].TotalCount
		}
		if impacts[i].AvgMovement != impacts[j].AvgMovement {
			return impacts[i].AvgMovement > impacts[j].AvgMovement
		}
		return impacts[i].Name < impacts[j].Name
	})
	return impacts
}

func modalImpact(counts map[domain.ImpactLevel]int) domain.ImpactLevel {
	var best domain.ImpactLevel
	bestCount := -1
	// Fixed iteration order keeps the mode deterministic on ties.
	for _, level := range []domain.ImpactLevel{domain.ImpactHigh, domain.ImpactMedium, domain.ImpactLow} {
		if c := counts[level]; c > bestCount {
			best = level
			bestCount = c
		}
	}
	if bestCount <= 0 {
		return ""
	}
	return best
}
