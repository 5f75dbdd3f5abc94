// Package forecast orchestrates forecast generation, retrieval, and variance
// tracking.
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rankcast/rankcast/internal/cache"
	"github.com/rankcast/rankcast/internal/metrics"
	"github.com/rankcast/rankcast/internal/scoring"
	"github.com/rankcast/rankcast/internal/store"
	"github.com/rankcast/rankcast/pkg/models"
	"github.com/rankcast/rankcast/pkg/prompt"
)

// Config tunes a Service.
type Config struct {
	// InferenceTimeout bounds the predictive provider call.
	InferenceTimeout time.Duration
	// Temperature and MaxTokens form the completion budget.
	Temperature float64
	MaxTokens   int
	// DefaultTimeframeMonths applies when a request omits the timeframe.
	DefaultTimeframeMonths int
	// LatestCacheTTL bounds staleness of cached latest-forecast reads.
	LatestCacheTTL time.Duration
}

// GenerateRequest is the input to one forecasting run.
type GenerateRequest struct {
	ProjectID       uuid.UUID
	SiteID          uuid.UUID
	Project         prompt.ProjectContext
	Recommendations []models.SEORecommendation
	// History is optional; when empty the normalizer supplies the trailing
	// year (synthetic if the site has no observations).
	History         []models.MonthlyMetric
	TimeframeMonths int
}

// Service coordinates the forecasting pipeline. Each call operates on its own
// copies of recommendations and history; concurrent runs, even for the same
// site, need no coordination and may each persist a result.
type Service struct {
	provider   models.ForecastProvider
	store      store.Store
	cache      cache.Cache
	normalizer *metrics.Normalizer
	cfg        Config
}

// NewService creates a forecast Service.
func NewService(provider models.ForecastProvider, st store.Store, ca cache.Cache, norm *metrics.Normalizer, cfg Config) *Service {
	return &Service{
		provider:   provider,
		store:      st,
		cache:      ca,
		normalizer: norm,
		cfg:        cfg,
	}
}

// GenerateForecast runs the full pipeline: normalize history, score
// recommendations, build the prompt, call the provider, validate the reply,
// persist, and return the stored result. On provider or validation failure
// nothing is persisted; the caller may retry the whole operation.
func (s *Service) GenerateForecast(ctx context.Context, req GenerateRequest) (*models.ForecastResult, error) {
	if req.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("invalid request: project id is required")
	}
	if req.SiteID == uuid.Nil {
		return nil, fmt.Errorf("invalid request: site id is required")
	}
	if len(req.Recommendations) == 0 {
		return nil, fmt.Errorf("invalid request: at least one recommendation is required")
	}

	timeframe := req.TimeframeMonths
	if timeframe <= 0 {
		timeframe = s.cfg.DefaultTimeframeMonths
	}

	history := req.History
	if len(history) == 0 {
		var err error
		history, err = s.normalizer.History(ctx, req.SiteID, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("normalizing history: %w", err)
		}
	}

	scored := scoring.Score(req.Recommendations)

	p := prompt.Builder{}.BuildForecastPrompt(prompt.ForecastParams{
		Project:         req.Project,
		Recommendations: scored,
		History:         history,
		TimeframeMonths: timeframe,
	})

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.InferenceTimeout)
	defer cancel()

	raw, err := s.provider.Complete(callCtx, models.CompletionRequest{
		Prompt:      p,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, &GenerationError{Stage: "provider call", Err: err}
	}

	parsed, err := ParseResponse(raw)
	if err != nil {
		return nil, &GenerationError{Stage: "response validation", Err: err}
	}

	// The scored order is what the provider saw; persist recommendations in
	// that order so plan phase numbers stay meaningful. Derived scores are
	// not persisted.
	recs := make([]models.SEORecommendation, len(scored))
	for i, sr := range scored {
		recs[i] = sr.SEORecommendation
	}

	result := &models.ForecastResult{
		ID:                 uuid.New(),
		ProjectID:          req.ProjectID,
		SiteID:             req.SiteID,
		Recommendations:    recs,
		Forecast:           parsed.Series,
		ROI:                parsed.ROI,
		Assumptions:        parsed.Assumptions,
		ImplementationPlan: parsed.ImplementationPlan,
		Provider:           s.provider.Name(),
		Model:              s.provider.Model(),
		CreatedAt:          time.Now().UTC(),
	}

	if err := s.store.CreateForecast(ctx, result); err != nil {
		return nil, fmt.Errorf("persisting forecast: %w", err)
	}

	_ = s.cache.InvalidateLatestForecast(ctx, req.SiteID)

	slog.Info("forecast generated",
		"forecast_id", result.ID,
		"project_id", req.ProjectID,
		"site_id", req.SiteID,
		"months", len(parsed.Series.Traffic),
		"provider", result.Provider,
	)

	return result, nil
}

// GetForecast returns a stored forecast by id, or store.ErrNotFound.
func (s *Service) GetForecast(ctx context.Context, id uuid.UUID) (*models.ForecastResult, error) {
	return s.store.GetForecast(ctx, id)
}

// GetProjectForecasts returns all forecasts for a project, newest first.
func (s *Service) GetProjectForecasts(ctx context.Context, projectID uuid.UUID) ([]*models.ForecastResult, error) {
	return s.store.ListProjectForecasts(ctx, projectID)
}

// GetLatestSiteForecast returns the newest forecast for a site, or nil when
// the site has no forecast yet. Results are cached briefly; the cache is
// invalidated whenever a forecast for the site is created or deleted.
func (s *Service) GetLatestSiteForecast(ctx context.Context, siteID uuid.UUID) (*models.ForecastResult, error) {
	if payload, ok, err := s.cache.GetLatestForecast(ctx, siteID); err == nil && ok {
		var f models.ForecastResult
		if err := json.Unmarshal(payload, &f); err == nil {
			return &f, nil
		}
	}

	f, err := s.store.GetLatestSiteForecast(ctx, siteID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(f); err == nil {
		_ = s.cache.SetLatestForecast(ctx, siteID, payload, s.cfg.LatestCacheTTL)
	}
	return f, nil
}

// DeleteForecast removes a stored forecast. Deleting an unknown id is not an
// error.
func (s *Service) DeleteForecast(ctx context.Context, id uuid.UUID) error {
	f, err := s.store.GetForecast(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.DeleteForecast(ctx, id); err != nil {
		return err
	}
	_ = s.cache.InvalidateLatestForecast(ctx, f.SiteID)
	return nil
}
