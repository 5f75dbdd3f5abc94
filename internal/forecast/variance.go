package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rankcast/rankcast/pkg/models"
)

// MonthVariance compares one observed month against its forecast. An actual
// month with no matching projection scores {0, false}, marking it unscored.
type MonthVariance struct {
	Month        string  `json:"month"`
	Actual       int64   `json:"actual"`
	Forecasted   float64 `json:"forecasted"`
	Percentage   float64 `json:"percentage"`
	WithinBounds bool    `json:"within_bounds"`
}

// VarianceReport is the output of TrackActualVsForecast.
type VarianceReport struct {
	ForecastID uuid.UUID               `json:"forecast_id"`
	Forecast   []models.ProjectedMetric `json:"forecast"`
	Actuals    []models.MonthlyMetric   `json:"actuals"`
	Variance   []MonthVariance          `json:"variance"`
	// Accuracy is the share of observed months inside their confidence
	// bounds, in [0, 100].
	Accuracy float64 `json:"accuracy"`
}

// TrackActualVsForecast scores a stored forecast's traffic projections
// against the site's observed metrics over the forecast window. Read-only:
// neither the forecast nor the actuals are modified.
func (s *Service) TrackActualVsForecast(ctx context.Context, forecastID uuid.UUID) (*VarianceReport, error) {
	fc, err := s.store.GetForecast(ctx, forecastID)
	if err != nil {
		return nil, err
	}

	projected := fc.Forecast.Traffic
	if len(projected) == 0 {
		return nil, fmt.Errorf("forecast %s has no traffic series", forecastID)
	}
	firstMonth := projected[0].Month
	lastMonth := projected[len(projected)-1].Month

	byMonth := make(map[string]models.ProjectedMetric, len(projected))
	for _, pm := range projected {
		byMonth[pm.Month] = pm
	}

	rows, err := s.store.ListSiteMetrics(ctx, fc.SiteID, firstMonth)
	if err != nil {
		return nil, fmt.Errorf("listing actual metrics: %w", err)
	}

	var actuals []models.MonthlyMetric
	for _, m := range rows {
		if m.Month <= lastMonth {
			actuals = append(actuals, m)
		}
	}

	variance := make([]MonthVariance, 0, len(actuals))
	within := 0
	for _, actual := range actuals {
		pm, ok := byMonth[actual.Month]
		if !ok {
			variance = append(variance, MonthVariance{
				Month:  actual.Month,
				Actual: actual.Traffic,
			})
			continue
		}

		v := MonthVariance{
			Month:      actual.Month,
			Actual:     actual.Traffic,
			Forecasted: pm.Value,
		}
		if pm.Value != 0 {
			v.Percentage = round2((float64(actual.Traffic) - pm.Value) / pm.Value * 100)
		}
		v.WithinBounds = pm.LowerBound <= float64(actual.Traffic) && float64(actual.Traffic) <= pm.UpperBound
		if v.WithinBounds {
			within++
		}
		variance = append(variance, v)
	}

	accuracy := 0.0
	if len(actuals) > 0 {
		accuracy = round2(float64(within) / float64(len(actuals)) * 100)
	}

	return &VarianceReport{
		ForecastID: forecastID,
		Forecast:   projected,
		Actuals:    actuals,
		Variance:   variance,
		Accuracy:   accuracy,
	}, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
