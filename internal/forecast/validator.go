package forecast

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rankcast/rankcast/pkg/models"
)

// ParsedForecast is the validated substructure extracted from a provider
// reply.
type ParsedForecast struct {
	Series             models.ForecastSeries
	ROI                models.ROIEstimate
	ImplementationPlan []models.ImplementationPhase
	Assumptions        []string
}

// rawResponse defers field decoding so that absent and malformed fields are
// distinguishable.
type rawResponse struct {
	ProjectedMetrics   json.RawMessage `json:"projected_metrics"`
	ROI                json.RawMessage `json:"roi"`
	ImplementationPlan json.RawMessage `json:"implementation_plan"`
	Assumptions        json.RawMessage `json:"assumptions"`
}

// ParseResponse extracts exactly one forecast object from the provider's raw
// reply and validates it. There is a single decode path: the first '{' starts
// the object and one JSON value is decoded from there. Any missing field,
// malformed series, or violated confidence bound fails with ErrParse.
func ParseResponse(raw string) (*ParsedForecast, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, fmt.Errorf("%w: no object found", ErrParse)
	}

	var resp rawResponse
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if missing(resp.ProjectedMetrics) {
		return nil, fmt.Errorf("%w: projected_metrics is required", ErrParse)
	}
	if missing(resp.ROI) {
		return nil, fmt.Errorf("%w: roi is required", ErrParse)
	}
	if missing(resp.ImplementationPlan) {
		return nil, fmt.Errorf("%w: implementation_plan is required", ErrParse)
	}
	if missing(resp.Assumptions) {
		return nil, fmt.Errorf("%w: assumptions is required", ErrParse)
	}

	var parsed ParsedForecast
	if err := json.Unmarshal(resp.ProjectedMetrics, &parsed.Series); err != nil {
		return nil, fmt.Errorf("%w: projected_metrics: %v", ErrParse, err)
	}
	if err := json.Unmarshal(resp.ROI, &parsed.ROI); err != nil {
		return nil, fmt.Errorf("%w: roi: %v", ErrParse, err)
	}
	if err := json.Unmarshal(resp.ImplementationPlan, &parsed.ImplementationPlan); err != nil {
		return nil, fmt.Errorf("%w: implementation_plan: %v", ErrParse, err)
	}
	if err := json.Unmarshal(resp.Assumptions, &parsed.Assumptions); err != nil {
		return nil, fmt.Errorf("%w: assumptions: %v", ErrParse, err)
	}

	if err := validateSeries(parsed.Series); err != nil {
		return nil, err
	}

	return &parsed, nil
}

// validateSeries enforces the forecast invariants: traffic and conversions
// present, all series covering the same consecutive ascending months, and
// lower_bound <= value <= upper_bound throughout.
func validateSeries(series models.ForecastSeries) error {
	if len(series.Traffic) == 0 {
		return fmt.Errorf("%w: traffic series is empty", ErrParse)
	}
	if len(series.Conversions) == 0 {
		return fmt.Errorf("%w: conversions series is empty", ErrParse)
	}

	if err := validateMonths("traffic", series.Traffic); err != nil {
		return err
	}
	if err := sameMonths("conversions", series.Traffic, series.Conversions); err != nil {
		return err
	}
	if len(series.Revenue) > 0 {
		if err := sameMonths("revenue", series.Traffic, series.Revenue); err != nil {
			return err
		}
	}

	for _, s := range [][]models.ProjectedMetric{series.Traffic, series.Conversions, series.Revenue} {
		for _, pm := range s {
			if pm.LowerBound > pm.Value || pm.Value > pm.UpperBound {
				return fmt.Errorf("%w: %s confidence bounds violated (%.2f <= %.2f <= %.2f)",
					ErrParse, pm.Month, pm.LowerBound, pm.Value, pm.UpperBound)
			}
		}
	}

	return nil
}

// validateMonths checks that a series is strictly ascending by calendar
// month with no gaps.
func validateMonths(name string, series []models.ProjectedMetric) error {
	for i, pm := range series {
		if _, err := models.ParseMonth(pm.Month); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrParse, name, err)
		}
		if i == 0 {
			continue
		}
		next, err := models.NextMonth(series[i-1].Month)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrParse, name, err)
		}
		if pm.Month != next {
			return fmt.Errorf("%w: %s series has a gap between %s and %s",
				ErrParse, name, series[i-1].Month, pm.Month)
		}
	}
	return nil
}

// sameMonths checks that other covers exactly the months of reference, in
// order.
func sameMonths(name string, reference, other []models.ProjectedMetric) error {
	if len(other) != len(reference) {
		return fmt.Errorf("%w: %s series covers %d months, expected %d",
			ErrParse, name, len(other), len(reference))
	}
	for i := range reference {
		if other[i].Month != reference[i].Month {
			return fmt.Errorf("%w: %s month %s does not match traffic month %s",
				ErrParse, name, other[i].Month, reference[i].Month)
		}
	}
	return nil
}

// missing reports whether a deferred JSON field was absent or null.
func missing(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
