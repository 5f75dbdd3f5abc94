package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rankcast/rankcast/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	// ListSiteMetrics returns observed monthly metrics for a site with
	// month >= fromMonth, ordered by month ascending.
	ListSiteMetrics(ctx context.Context, siteID uuid.UUID, fromMonth string) ([]models.MonthlyMetric, error)
	// UpsertSiteMetrics inserts or replaces observations keyed by
	// (site_id, month).
	UpsertSiteMetrics(ctx context.Context, siteID uuid.UUID, metrics []models.MonthlyMetric) error

	CreateForecast(ctx context.Context, forecast *models.ForecastResult) error
	GetForecast(ctx context.Context, id uuid.UUID) (*models.ForecastResult, error)
	// ListProjectForecasts returns a project's forecasts, newest first.
	ListProjectForecasts(ctx context.Context, projectID uuid.UUID) ([]*models.ForecastResult, error)
	// GetLatestSiteForecast returns the newest forecast for a site, or
	// ErrNotFound when none exists.
	GetLatestSiteForecast(ctx context.Context, siteID uuid.UUID) (*models.ForecastResult, error)
	// DeleteForecast removes a forecast. Deleting an unknown id is a no-op.
	DeleteForecast(ctx context.Context, id uuid.UUID) error
}
