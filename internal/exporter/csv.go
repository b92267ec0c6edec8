// Package exporter writes a parsed record set to CSV files and XLSX
// workbooks for consumers that want the data outside the encrypted
// session.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"healthvault/pkg/contracts/domain"
)

// Series sheet/file names, in export order.
const (
	SeriesSteps         = "steps"
	SeriesHeartRate     = "heart_rate"
	SeriesActiveEnergy  = "active_energy"
	SeriesRestingEnergy = "resting_energy"
	SeriesSleep         = "sleep"
	SeriesWorkouts      = "workouts"
)

// CSVWriter exports each series to its own CSV file in a directory.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV exporter.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteAll writes one CSV per non-empty series under dir. Series are
// written concurrently; any failure aborts the whole export.
func (w *CSVWriter) WriteAll(data *domain.ParsedHealthData, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	var g errgroup.Group

	for _, series := range []struct {
		name    string
		metrics []domain.DailyMetric
	}{
		{SeriesSteps, data.Steps},
		{SeriesHeartRate, data.HeartRate},
		{SeriesActiveEnergy, data.ActiveEnergy},
		{SeriesRestingEnergy, data.RestingEnergy},
	} {
		if len(series.metrics) == 0 {
			continue
		}
		series := series
		g.Go(func() error {
			return w.writeMetricSeries(filepath.Join(dir, series.name+".csv"), series.metrics)
		})
	}

	if len(data.Sleep) > 0 {
		g.Go(func() error {
			return w.writeSleep(filepath.Join(dir, SeriesSleep+".csv"), data.Sleep)
		})
	}
	if len(data.Workouts) > 0 {
		g.Go(func() error {
			return w.writeWorkouts(filepath.Join(dir, SeriesWorkouts+".csv"), data.Workouts)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	w.logger.Info("CSV export completed", slog.String("dir", dir))
	return nil
}

func (w *CSVWriter) writeMetricSeries(path string, series []domain.DailyMetric) error {
	rows := make([][]string, 0, len(series)+1)
	rows = append(rows, []string{"date", "value"})
	for _, m := range series {
		rows = append(rows, []string{m.Date, formatFloat(m.Value)})
	}
	return writeCSVFile(path, rows)
}

func (w *CSVWriter) writeSleep(path string, nights []domain.SleepNight) error {
	rows := make([][]string, 0, len(nights)+1)
	rows = append(rows, []string{"date", "deep_hours", "light_hours", "rem_hours"})
	for _, n := range nights {
		rows = append(rows, []string{n.Date, formatFloat(n.Deep), formatFloat(n.Light), formatFloat(n.REM)})
	}
	return writeCSVFile(path, rows)
}

func (w *CSVWriter) writeWorkouts(path string, workouts []domain.Workout) error {
	rows := make([][]string, 0, len(workouts)+1)
	rows = append(rows, []string{"date", "type", "duration_min", "calories", "distance"})
	for _, wo := range workouts {
		distance := ""
		if wo.Distance != nil {
			distance = formatFloat(*wo.Distance)
		}
		rows = append(rows, []string{wo.Date, wo.Type, formatFloat(wo.Duration), formatFloat(wo.Calories), distance})
	}
	return writeCSVFile(path, rows)
}

func writeCSVFile(path string, rows [][]string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat formats a value for CSV output with 2 decimal places.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
