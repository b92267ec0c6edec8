package exporter

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"healthvault/pkg/contracts/domain"
)

// WorkbookWriter exports the whole record set to a single XLSX workbook
// with one sheet per non-empty series.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates an XLSX exporter.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// Write saves the workbook to path.
func (w *WorkbookWriter) Write(data *domain.ParsedHealthData, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true

	addSheet := func(name string, rows [][]interface{}) error {
		if first {
			// Reuse the default sheet for the first series.
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return err
			}
		}
		return nil
	}

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
		rows := [][]interface{}{{"date", "value"}}
		for _, m := range series.metrics {
			rows = append(rows, []interface{}{m.Date, m.Value})
		}
		if err := addSheet(series.name, rows); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", series.name, err)
		}
	}

	if len(data.Sleep) > 0 {
		rows := [][]interface{}{{"date", "deep_hours", "light_hours", "rem_hours"}}
		for _, n := range data.Sleep {
			rows = append(rows, []interface{}{n.Date, n.Deep, n.Light, n.REM})
		}
		if err := addSheet(SeriesSleep, rows); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", SeriesSleep, err)
		}
	}

	if len(data.Workouts) > 0 {
		rows := [][]interface{}{{"date", "type", "duration_min", "calories", "distance"}}
		for _, wo := range data.Workouts {
			var distance interface{}
			if wo.Distance != nil {
				distance = *wo.Distance
			}
			rows = append(rows, []interface{}{wo.Date, wo.Type, wo.Duration, wo.Calories, distance})
		}
		if err := addSheet(SeriesWorkouts, rows); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", SeriesWorkouts, err)
		}
	}

	if first {
		// Nothing to export; still produce an empty workbook so the
		// caller gets a file.
		w.logger.Warn("record set has no series to export")
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("workbook export completed", slog.String("path", path))
	return nil
}
