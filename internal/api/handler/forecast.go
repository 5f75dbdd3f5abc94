package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rankcast/rankcast/internal/api/response"
	"github.com/rankcast/rankcast/internal/forecast"
	"github.com/rankcast/rankcast/internal/store"
	"github.com/rankcast/rankcast/pkg/models"
	"github.com/rankcast/rankcast/pkg/prompt"
)

// ForecastService defines the interface the forecast handlers depend on.
type ForecastService interface {
	GenerateForecast(ctx context.Context, req forecast.GenerateRequest) (*models.ForecastResult, error)
	GetForecast(ctx context.Context, id uuid.UUID) (*models.ForecastResult, error)
	GetProjectForecasts(ctx context.Context, projectID uuid.UUID) ([]*models.ForecastResult, error)
	GetLatestSiteForecast(ctx context.Context, siteID uuid.UUID) (*models.ForecastResult, error)
	DeleteForecast(ctx context.Context, id uuid.UUID) error
	TrackActualVsForecast(ctx context.Context, forecastID uuid.UUID) (*forecast.VarianceReport, error)
}

// NewGenerateForecastHandler returns an http.HandlerFunc for POST /api/v1/forecasts.
func NewGenerateForecastHandler(svc ForecastService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ProjectID       string                     `json:"project_id"`
			SiteID          string                     `json:"site_id"`
			ProjectName     string                     `json:"project_name"`
			Industry        string                     `json:"industry"`
			Goals           []string                   `json:"goals"`
			BusinessGoals   []string                   `json:"business_goals"`
			MonthlyBudget   float64                    `json:"monthly_budget"`
			Recommendations []models.SEORecommendation `json:"recommendations"`
			History         []models.MonthlyMetric     `json:"history"`
			TimeframeMonths int                        `json:"timeframe_months"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "project_id must be a valid UUID", nil)
			return
		}
		siteID, err := uuid.Parse(req.SiteID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "site_id must be a valid UUID", nil)
			return
		}
		if len(req.Recommendations) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "at least one recommendation is required", nil)
			return
		}

		result, err := svc.GenerateForecast(r.Context(), forecast.GenerateRequest{
			ProjectID: projectID,
			SiteID:    siteID,
			Project: prompt.ProjectContext{
				Name:          req.ProjectName,
				Industry:      req.Industry,
				Goals:         req.Goals,
				BusinessGoals: req.BusinessGoals,
				MonthlyBudget: req.MonthlyBudget,
			},
			Recommendations: req.Recommendations,
			History:         req.History,
			TimeframeMonths: req.TimeframeMonths,
		})
		if err != nil {
			writeForecastError(w, err)
			return
		}

		response.Created(w, result)
	}
}

// NewGetForecastHandler returns an http.HandlerFunc for GET /api/v1/forecasts/{forecastID}.
func NewGetForecastHandler(svc ForecastService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "forecastID")
		if !ok {
			return
		}

		result, err := svc.GetForecast(r.Context(), id)
		if err != nil {
			writeForecastError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewListProjectForecastsHandler returns an http.HandlerFunc for
// GET /api/v1/projects/{projectID}/forecasts.
func NewListProjectForecastsHandler(svc ForecastService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "projectID")
		if !ok {
			return
		}

		results, err := svc.GetProjectForecasts(r.Context(), id)
		if err != nil {
			writeForecastError(w, err)
			return
		}
		if results == nil {
			results = []*models.ForecastResult{}
		}
		response.JSON(w, results)
	}
}

// NewLatestSiteForecastHandler returns an http.HandlerFunc for
// GET /api/v1/sites/{siteID}/forecasts/latest. A site with no forecast yet
// yields an empty 200, not an error.
func NewLatestSiteForecastHandler(svc ForecastService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "siteID")
		if !ok {
			return
		}

		result, err := svc.GetLatestSiteForecast(r.Context(), id)
		if err != nil {
			writeForecastError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewDeleteForecastHandler returns an http.HandlerFunc for
// DELETE /api/v1/forecasts/{forecastID}. Idempotent.
func NewDeleteForecastHandler(svc ForecastService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "forecastID")
		if !ok {
			return
		}

		if err := svc.DeleteForecast(r.Context(), id); err != nil {
			writeForecastError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// NewVarianceHandler returns an http.HandlerFunc for
// GET /api/v1/forecasts/{forecastID}/variance.
func NewVarianceHandler(svc ForecastService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "forecastID")
		if !ok {
			return
		}

		report, err := svc.TrackActualVsForecast(r.Context(), id)
		if err != nil {
			writeForecastError(w, err)
			return
		}
		response.JSON(w, report)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// writeForecastError maps service errors onto the response taxonomy: the
// caller can distinguish a retryable upstream failure from a provider that
// returned garbage, and both from a storage problem.
func writeForecastError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Forecast not found", nil)
	case errors.Is(err, forecast.ErrParse):
		response.Error(w, http.StatusBadGateway, "UPSTREAM_INVALID_RESPONSE",
			"Forecast provider returned an unusable response", nil)
	case errors.Is(err, models.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT",
			"Forecast provider timed out", nil)
	case errors.Is(err, models.ErrProviderUnavailable), errors.Is(err, models.ErrInvalidResponse):
		response.Error(w, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE",
			"Forecast provider unavailable", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
