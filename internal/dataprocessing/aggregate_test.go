package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/pkg/contracts/domain"
)

func TestAggregateSum(t *testing.T) {
	t.Run("merges same date entries", func(t *testing.T) {
		series := []domain.DailyMetric{
			{Date: "2023-06-15", Value: 100},
			{Date: "2023-06-16", Value: 50},
			{Date: "2023-06-15", Value: 200},
		}

		got := AggregateSum(series)
		require.Len(t, got, 2)
		assert.Equal(t, domain.DailyMetric{Date: "2023-06-15", Value: 300}, got[0])
		assert.Equal(t, domain.DailyMetric{Date: "2023-06-16", Value: 50}, got[1])
	})

	t.Run("idempotent on aggregated input", func(t *testing.T) {
		series := []domain.DailyMetric{
			{Date: "2023-06-15", Value: 300},
			{Date: "2023-06-16", Value: 50},
		}
		assert.Equal(t, series, AggregateSum(series))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, AggregateSum(nil))
	})
}

func TestAggregateAverage(t *testing.T) {
	t.Run("rounds the mean", func(t *testing.T) {
		series := []domain.DailyMetric{
			{Date: "2023-06-15", Value: 60},
			{Date: "2023-06-15", Value: 61},
		}

		got := AggregateAverage(series)
		require.Len(t, got, 1)
		assert.Equal(t, 61.0, got[0].Value, "60.5 rounds up")
	})

	t.Run("single entry unchanged", func(t *testing.T) {
		got := AggregateAverage([]domain.DailyMetric{{Date: "2023-06-15", Value: 72}})
		require.Len(t, got, 1)
		assert.Equal(t, 72.0, got[0].Value)
	})

	t.Run("sorted output", func(t *testing.T) {
		series := []domain.DailyMetric{
			{Date: "2023-06-17", Value: 70},
			{Date: "2023-06-15", Value: 60},
			{Date: "2023-06-16", Value: 65},
		}
		got := AggregateAverage(series)
		require.Len(t, got, 3)
		assert.Equal(t, "2023-06-15", got[0].Date)
		assert.Equal(t, "2023-06-17", got[2].Date)
	})
}
