package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectedMetric is a single forecast month for one variable, with the
// confidence interval produced by the predictive provider. Invariant:
// LowerBound <= Value <= UpperBound.
type ProjectedMetric struct {
	Month      string  `json:"month"`
	Value      float64 `json:"value"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// ForecastSeries holds parallel projections for each forecast variable.
// Traffic and Conversions cover the same ordered, gap-free set of months;
// Revenue, when present, covers the same months.
type ForecastSeries struct {
	Traffic     []ProjectedMetric `json:"traffic"`
	Conversions []ProjectedMetric `json:"conversions"`
	Revenue     []ProjectedMetric `json:"revenue,omitempty"`
}

// ROIEstimate is the provider-derived return on investment summary.
type ROIEstimate struct {
	TrafficIncreasePct    float64 `json:"traffic_increase_pct"`
	ConversionIncreasePct float64 `json:"conversion_increase_pct"`
	RevenueIncreasePct    float64 `json:"revenue_increase_pct"`
	EstimatedCost         float64 `json:"estimated_cost"`
	CostBenefitRatio      float64 `json:"cost_benefit_ratio"`
}

// ImplementationPhase is one ordered phase of the rollout plan. Recommendation
// references are 1-based positions in the priority-ordered recommendation
// list sent to the provider.
type ImplementationPhase struct {
	Phase           int    `json:"phase"`
	DurationWeeks   int    `json:"duration_weeks"`
	Recommendations []int  `json:"recommendations"`
	ExpectedImpact  string `json:"expected_impact"`
}

// ForecastResult is the aggregate artifact of one forecasting run. It is
// persisted exactly once on success and never mutated afterwards; a new
// recommendation set produces a new ForecastResult.
type ForecastResult struct {
	ID                 uuid.UUID             `db:"id"                  json:"id"`
	ProjectID          uuid.UUID             `db:"project_id"          json:"project_id"`
	SiteID             uuid.UUID             `db:"site_id"             json:"site_id"`
	Recommendations    []SEORecommendation   `db:"recommendations"     json:"recommendations"`
	Forecast           ForecastSeries        `db:"forecast"            json:"forecast"`
	ROI                ROIEstimate           `db:"roi"                 json:"roi"`
	Assumptions        []string              `db:"assumptions"         json:"assumptions"`
	ImplementationPlan []ImplementationPhase `db:"implementation_plan" json:"implementation_plan"`
	Provider           string                `db:"provider"            json:"provider"`
	Model              string                `db:"model"               json:"model"`
	CreatedAt          time.Time             `db:"created_at"          json:"created_at"`
}
