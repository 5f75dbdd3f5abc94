// Package mock provides a forecast provider for testing.
package mock

import (
	"context"

	"github.com/rankcast/rankcast/pkg/models"
)

// MockProvider satisfies models.ForecastProvider for testing.
type MockProvider struct {
	Name_        string
	Model_       string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)
}

func (m *MockProvider) Name() string  { return m.Name_ }
func (m *MockProvider) Model() string { return m.Model_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// NewMockProvider returns a MockProvider whose completion is a small valid
// forecast object, so the full generate pipeline can run without a live
// model.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock",
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return DefaultCompletion, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_:  "mock-failing",
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock-timeout",
		Model_: "mock-v1",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", models.ErrInferenceTimeout
		},
	}
}

// DefaultCompletion is a minimal well-formed forecast reply covering three
// months.
const DefaultCompletion = `{
  "projected_metrics": {
    "traffic": [
      {"month": "2025-01", "value": 1200, "lower_bound": 1000, "upper_bound": 1400},
      {"month": "2025-02", "value": 1300, "lower_bound": 1080, "upper_bound": 1520},
      {"month": "2025-03", "value": 1420, "lower_bound": 1170, "upper_bound": 1670}
    ],
    "conversions": [
      {"month": "2025-01", "value": 36, "lower_bound": 28, "upper_bound": 44},
      {"month": "2025-02", "value": 40, "lower_bound": 31, "upper_bound": 49},
      {"month": "2025-03", "value": 44, "lower_bound": 34, "upper_bound": 54}
    ],
    "revenue": [
      {"month": "2025-01", "value": 1800, "lower_bound": 1400, "upper_bound": 2200},
      {"month": "2025-02", "value": 2000, "lower_bound": 1550, "upper_bound": 2450},
      {"month": "2025-03", "value": 2200, "lower_bound": 1700, "upper_bound": 2700}
    ]
  },
  "roi": {
    "traffic_increase_pct": 18.3,
    "conversion_increase_pct": 22.2,
    "revenue_increase_pct": 22.2,
    "estimated_cost": 4500,
    "cost_benefit_ratio": 1.33
  },
  "implementation_plan": [
    {"phase": 1, "duration_weeks": 2, "recommendations": [1], "expected_impact": "quick technical wins"},
    {"phase": 2, "duration_weeks": 6, "recommendations": [2, 3], "expected_impact": "content-driven growth"}
  ],
  "assumptions": [
    "seasonality consistent with the trailing year",
    "no major algorithm updates during the forecast window"
  ]
}`

// Compile-time check that MockProvider implements ForecastProvider.
var _ models.ForecastProvider = (*MockProvider)(nil)
