// Package prompt assembles forecast requests for the predictive provider.
package prompt

import (
	"fmt"
	"strings"

	"github.com/rankcast/rankcast/pkg/models"
)

// ProjectContext carries the project metadata included in a forecast request.
type ProjectContext struct {
	Name          string
	Industry      string
	Goals         []string
	BusinessGoals []string
	MonthlyBudget float64 // 0 means unspecified
}

// Builder constructs forecast prompts. All methods are pure functions with no
// side effects; identical inputs always produce identical output. Zero value
// is ready to use.
type Builder struct{}

// ForecastParams defines the inputs to a forecast prompt.
type ForecastParams struct {
	Project         ProjectContext
	Recommendations []models.ScoredRecommendation
	History         []models.MonthlyMetric
	TimeframeMonths int
}

// BuildForecastPrompt returns the complete prompt for one forecast run. The
// recommendation list must already be in priority order; phase references in
// the reply are 1-based positions in that order.
func (b Builder) BuildForecastPrompt(p ForecastParams) string {
	var sb strings.Builder

	sb.WriteString("You are an SEO forecasting analyst. Project a monthly traffic, conversion, and revenue forecast for the site below.\n\n")

	sb.WriteString("Project:\n")
	sb.WriteString(fmt.Sprintf("- name: %s\n", p.Project.Name))
	sb.WriteString(fmt.Sprintf("- industry: %s\n", p.Project.Industry))
	if len(p.Project.Goals) > 0 {
		sb.WriteString(fmt.Sprintf("- goals: %s\n", strings.Join(p.Project.Goals, ", ")))
	}
	if len(p.Project.BusinessGoals) > 0 {
		sb.WriteString(fmt.Sprintf("- business goals: %s\n", strings.Join(p.Project.BusinessGoals, ", ")))
	}
	if p.Project.MonthlyBudget > 0 {
		sb.WriteString(fmt.Sprintf("- monthly budget: %.2f\n", p.Project.MonthlyBudget))
	}

	sb.WriteString("\nHistorical monthly metrics (oldest first):\n")
	for _, m := range p.History {
		sb.WriteString(b.historyLine(m))
	}

	sb.WriteString("\nPlanned improvements, highest priority first:\n")
	for i, rec := range p.Recommendations {
		sb.WriteString(b.recommendationLine(i+1, rec))
	}

	sb.WriteString(fmt.Sprintf("\nForecast the next %d months, starting the month after the last historical month.\n", p.TimeframeMonths))
	sb.WriteString(responseContract)

	return sb.String()
}

func (b Builder) historyLine(m models.MonthlyMetric) string {
	if m.Revenue != nil {
		return fmt.Sprintf("%s: traffic %d, conversions %d, revenue %.2f\n", m.Month, m.Traffic, m.Conversions, *m.Revenue)
	}
	return fmt.Sprintf("%s: traffic %d, conversions %d, revenue n/a\n", m.Month, m.Traffic, m.Conversions)
}

func (b Builder) recommendationLine(n int, rec models.ScoredRecommendation) string {
	category := rec.Category
	if category == "" {
		category = string(rec.Type)
	}
	return fmt.Sprintf("%d. %s (impact: %s, effort: %s, category: %s)\n", n, rec.Description, rec.Impact, rec.Effort, category)
}

const responseContract = `
Respond with a single JSON object and nothing else, using exactly this shape:
{
  "projected_metrics": {
    "traffic": [{"month": "YYYY-MM", "value": 0, "lower_bound": 0, "upper_bound": 0}],
    "conversions": [{"month": "YYYY-MM", "value": 0, "lower_bound": 0, "upper_bound": 0}],
    "revenue": [{"month": "YYYY-MM", "value": 0, "lower_bound": 0, "upper_bound": 0}]
  },
  "roi": {"traffic_increase_pct": 0, "conversion_increase_pct": 0, "revenue_increase_pct": 0, "estimated_cost": 0, "cost_benefit_ratio": 0},
  "implementation_plan": [{"phase": 1, "duration_weeks": 0, "recommendations": [1], "expected_impact": ""}],
  "assumptions": [""]
}
Every series must cover the same consecutive months with no gaps, and every
lower_bound <= value <= upper_bound. Phase recommendation numbers refer to the
numbered improvement list above.
`
