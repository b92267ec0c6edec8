package dataprocessing

import (
	"math"
	"sort"

	"healthvault/pkg/contracts/domain"
)

// AggregateSum merges same-date entries by summing their values, the
// correct reduction for counter metrics (steps, energy) measured over
// sub-day intervals. The result holds one entry per date, sorted
// ascending, and is a fixed point: re-aggregating an aggregated series
// returns it unchanged.
func AggregateSum(series []domain.DailyMetric) []domain.DailyMetric {
	byDate := make(map[string]float64, len(series))
	for _, m := range series {
		byDate[m.Date] += m.Value
	}
	return sortedSeries(byDate)
}

// AggregateAverage merges same-date entries by arithmetic mean rounded
// to the nearest integer, the correct summary for rate metrics (heart
// rate). One entry per date, sorted ascending.
func AggregateAverage(series []domain.DailyMetric) []domain.DailyMetric {
	type acc struct {
		sum   float64
		count int
	}
	byDate := make(map[string]acc, len(series))
	for _, m := range series {
		a := byDate[m.Date]
		a.sum += m.Value
		a.count++
		byDate[m.Date] = a
	}

	averaged := make(map[string]float64, len(byDate))
	for date, a := range byDate {
		averaged[date] = math.Round(a.sum / float64(a.count))
	}
	return sortedSeries(averaged)
}

func sortedSeries(byDate map[string]float64) []domain.DailyMetric {
	out := make([]domain.DailyMetric, 0, len(byDate))
	for date, value := range byDate {
		out = append(out, domain.DailyMetric{Date: date, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
