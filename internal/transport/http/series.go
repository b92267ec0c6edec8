package http

import (
	"healthvault/internal/dataprocessing"
	apperrors "healthvault/internal/errors"
	"healthvault/pkg/contracts/domain"
)

// seriesForMetric selects the daily series named by the metric query
// parameter.
func seriesForMetric(data *domain.ParsedHealthData, metric string) ([]domain.DailyMetric, error) {
	switch metric {
	case "steps":
		return data.Steps, nil
	case "heart_rate":
		return data.HeartRate, nil
	case "active_energy":
		return data.ActiveEnergy, nil
	case "resting_energy":
		return data.RestingEnergy, nil
	default:
		return nil, apperrors.NewValidationError("metric must be one of steps, heart_rate, active_energy, resting_energy")
	}
}

// seriesSummary produces the summary for an already date-aggregated
// series at the requested granularity.
func seriesSummary(series []domain.DailyMetric, g domain.Granularity) (domain.SeriesSummary, error) {
	return dataprocessing.Summarize(series, g)
}
