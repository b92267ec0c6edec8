package exporter

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleData() *domain.ParsedHealthData {
	distance := 5.2
	data := domain.NewParsedHealthData()
	data.Steps = []domain.DailyMetric{
		{Date: "2023-06-15", Value: 8000},
		{Date: "2023-06-16", Value: 7000},
	}
	data.HeartRate = []domain.DailyMetric{{Date: "2023-06-15", Value: 70}}
	data.Sleep = []domain.SleepNight{{Date: "2023-06-15", Deep: 2, Light: 4.5, REM: 1.5}}
	data.Workouts = []domain.Workout{
		{Type: "Running", Date: "2023-06-15", Duration: 32.5, Calories: 310, Distance: &distance},
		{Type: "Yoga", Date: "2023-06-16", Duration: 45, Calories: 120},
	}
	return data
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriterWriteAll(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(testLogger())

	require.NoError(t, w.WriteAll(sampleData(), dir))

	t.Run("metric series", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "steps.csv"))
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"date", "value"}, rows[0])
		assert.Equal(t, []string{"2023-06-15", "8000.00"}, rows[1])
	})

	t.Run("sleep stages", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "sleep.csv"))
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"2023-06-15", "2.00", "4.50", "1.50"}, rows[1])
	})

	t.Run("workouts with absent distance", func(t *testing.T) {
		rows := readCSV(t, filepath.Join(dir, "workouts.csv"))
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"2023-06-15", "Running", "32.50", "310.00", "5.20"}, rows[1])
		assert.Equal(t, []string{"2023-06-16", "Yoga", "45.00", "120.00", ""}, rows[2])
	})

	t.Run("empty series produce no file", func(t *testing.T) {
		_, err := os.Stat(filepath.Join(dir, "active_energy.csv"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestCSVWriterEmptyDataSet(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(testLogger())

	require.NoError(t, w.WriteAll(domain.NewParsedHealthData(), dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
