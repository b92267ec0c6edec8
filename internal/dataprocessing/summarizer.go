package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"healthvault/pkg/contracts/domain"
)

// Summarize produces the granularity view of a daily metric series.
// The switch is exhaustive over the Granularity vocabulary; an unknown
// tag is a programming error on the caller's side and is rejected.
func Summarize(series []domain.DailyMetric, g domain.Granularity) (domain.SeriesSummary, error) {
	switch g {
	case domain.GranularityDaily:
		points := make([]domain.DailyMetric, len(series))
		copy(points, series)
		return domain.DailySummary{Points: points}, nil
	case domain.GranularityWeekly:
		return summarizeWeekly(series), nil
	case domain.GranularityMonthly:
		return summarizeMonthly(series), nil
	case domain.GranularityYearly:
		return summarizeYearly(series), nil
	default:
		return nil, fmt.Errorf("unknown granularity %q", g)
	}
}

// summarizeWeekly groups by Sunday-anchored week.
func summarizeWeekly(series []domain.DailyMetric) domain.WeeklySummary {
	type acc struct {
		total float64
		count int
	}
	weeks := make(map[string]acc)

	for _, m := range series {
		day, err := time.Parse(calendarDayLayout, m.Date)
		if err != nil {
			continue
		}
		weekStart := day.AddDate(0, 0, -int(day.Weekday())).Format(calendarDayLayout)
		a := weeks[weekStart]
		a.total += m.Value
		a.count++
		weeks[weekStart] = a
	}

	out := domain.WeeklySummary{Weeks: make([]domain.WeekBucket, 0, len(weeks))}
	for start, a := range weeks {
		out.Weeks = append(out.Weeks, domain.WeekBucket{
			WeekStart: start,
			Total:     a.total,
			Average:   a.total / float64(a.count),
			Days:      a.count,
		})
	}
	sort.Slice(out.Weeks, func(i, j int) bool { return out.Weeks[i].WeekStart < out.Weeks[j].WeekStart })
	return out
}

// summarizeMonthly groups by YYYY-MM key.
func summarizeMonthly(series []domain.DailyMetric) domain.MonthlySummary {
	type acc struct {
		total float64
		count int
	}
	months := make(map[string]acc)

	for _, m := range series {
		if len(m.Date) < 7 {
			continue
		}
		key := m.Date[:7]
		a := months[key]
		a.total += m.Value
		a.count++
		months[key] = a
	}

	out := domain.MonthlySummary{Months: make([]domain.MonthBucket, 0, len(months))}
	for key, a := range months {
		out.Months = append(out.Months, domain.MonthBucket{
			Month:   key,
			Total:   a.total,
			Average: a.total / float64(a.count),
			Days:    a.count,
		})
	}
	sort.Slice(out.Months, func(i, j int) bool { return out.Months[i].Month < out.Months[j].Month })
	return out
}

// summarizeYearly groups by calendar year and tracks each year's best day.
func summarizeYearly(series []domain.DailyMetric) domain.YearlySummary {
	type acc struct {
		total       float64
		count       int
		bestDay     float64
		bestDayDate string
	}
	years := make(map[int]acc)

	for _, m := range series {
		day, err := time.Parse(calendarDayLayout, m.Date)
		if err != nil {
			continue
		}
		year := day.Year()
		a, seen := years[year]
		a.total += m.Value
		a.count++
		if !seen || m.Value > a.bestDay {
			a.bestDay = m.Value
			a.bestDayDate = m.Date
		}
		years[year] = a
	}

	out := domain.YearlySummary{Years: make([]domain.YearBucket, 0, len(years))}
	for year, a := range years {
		out.Years = append(out.Years, domain.YearBucket{
			Year:        year,
			Total:       a.total,
			Average:     a.total / float64(a.count),
			Days:        a.count,
			BestDay:     a.bestDay,
			BestDayDate: a.bestDayDate,
		})
	}
	sort.Slice(out.Years, func(i, j int) bool { return out.Years[i].Year < out.Years[j].Year })
	return out
}
