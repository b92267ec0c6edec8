package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/pkg/contracts/domain"
)

func TestSummarizeDaily(t *testing.T) {
	series := []domain.DailyMetric{
		{Date: "2023-06-15", Value: 8000},
		{Date: "2023-06-16", Value: 7000},
	}

	summary, err := Summarize(series, domain.GranularityDaily)
	require.NoError(t, err)

	daily, ok := summary.(domain.DailySummary)
	require.True(t, ok)
	assert.Equal(t, domain.GranularityDaily, summary.Granularity())
	assert.Equal(t, series, daily.Points)
}

func TestSummarizeWeekly(t *testing.T) {
	// 2023-06-15 is a Thursday; its Sunday anchor is 2023-06-11.
	// 2023-06-18 is the following Sunday.
	series := []domain.DailyMetric{
		{Date: "2023-06-15", Value: 100},
		{Date: "2023-06-16", Value: 200},
		{Date: "2023-06-18", Value: 50},
	}

	summary, err := Summarize(series, domain.GranularityWeekly)
	require.NoError(t, err)

	weekly, ok := summary.(domain.WeeklySummary)
	require.True(t, ok)
	require.Len(t, weekly.Weeks, 2)

	first := weekly.Weeks[0]
	assert.Equal(t, "2023-06-11", first.WeekStart)
	assert.Equal(t, 300.0, first.Total)
	assert.Equal(t, 150.0, first.Average)
	assert.Equal(t, 2, first.Days)

	second := weekly.Weeks[1]
	assert.Equal(t, "2023-06-18", second.WeekStart)
	assert.Equal(t, 50.0, second.Total)
}

func TestSummarizeMonthly(t *testing.T) {
	series := []domain.DailyMetric{
		{Date: "2023-06-15", Value: 100},
		{Date: "2023-06-20", Value: 300},
		{Date: "2023-07-01", Value: 500},
	}

	summary, err := Summarize(series, domain.GranularityMonthly)
	require.NoError(t, err)

	monthly, ok := summary.(domain.MonthlySummary)
	require.True(t, ok)
	require.Len(t, monthly.Months, 2)

	assert.Equal(t, "2023-06", monthly.Months[0].Month)
	assert.Equal(t, 400.0, monthly.Months[0].Total)
	assert.Equal(t, 200.0, monthly.Months[0].Average)
	assert.Equal(t, "2023-07", monthly.Months[1].Month)
}

func TestSummarizeYearly(t *testing.T) {
	series := []domain.DailyMetric{
		{Date: "2022-12-31", Value: 900},
		{Date: "2023-01-01", Value: 100},
		{Date: "2023-05-10", Value: 12000},
		{Date: "2023-05-11", Value: 600},
	}

	summary, err := Summarize(series, domain.GranularityYearly)
	require.NoError(t, err)

	yearly, ok := summary.(domain.YearlySummary)
	require.True(t, ok)
	require.Len(t, yearly.Years, 2)

	assert.Equal(t, 2022, yearly.Years[0].Year)
	assert.Equal(t, 900.0, yearly.Years[0].BestDay)

	best := yearly.Years[1]
	assert.Equal(t, 2023, best.Year)
	assert.Equal(t, 12700.0, best.Total)
	assert.Equal(t, 12000.0, best.BestDay)
	assert.Equal(t, "2023-05-10", best.BestDayDate)
}

func TestSummarizeUnknownGranularity(t *testing.T) {
	_, err := Summarize(nil, domain.Granularity("hourly"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hourly")
}
