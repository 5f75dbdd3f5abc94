package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rankcast/rankcast/internal/api/response"
	"github.com/rankcast/rankcast/pkg/models"
)

// MetricsStore defines the storage operations the metrics handler depends on.
type MetricsStore interface {
	UpsertSiteMetrics(ctx context.Context, siteID uuid.UUID, metrics []models.MonthlyMetric) error
}

// NewUpsertSiteMetricsHandler returns an http.HandlerFunc for
// PUT /api/v1/sites/{siteID}/metrics. Observations are keyed by month;
// re-submitting a month replaces the previous observation.
func NewUpsertSiteMetricsHandler(st MetricsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, ok := parseIDParam(w, r, "siteID")
		if !ok {
			return
		}

		var req struct {
			Metrics []models.MonthlyMetric `json:"metrics"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.Metrics) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "metrics must not be empty", nil)
			return
		}
		if msg := validateMetrics(req.Metrics); msg != "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
			return
		}

		if err := st.UpsertSiteMetrics(r.Context(), siteID, req.Metrics); err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to store metrics", nil)
			return
		}

		response.JSON(w, map[string]int{"stored": len(req.Metrics)})
	}
}

func validateMetrics(metrics []models.MonthlyMetric) string {
	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if _, err := models.ParseMonth(m.Month); err != nil {
			return fmt.Sprintf("invalid month %q: expected YYYY-MM", m.Month)
		}
		if seen[m.Month] {
			return fmt.Sprintf("duplicate month %q", m.Month)
		}
		seen[m.Month] = true
		if m.Traffic < 0 || m.Conversions < 0 {
			return fmt.Sprintf("negative metric value for month %q", m.Month)
		}
	}
	return ""
}
