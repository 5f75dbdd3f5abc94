package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rankcast/rankcast/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Site Metrics ---

func (s *PostgresStore) ListSiteMetrics(ctx context.Context, siteID uuid.UUID, fromMonth string) ([]models.MonthlyMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT month, traffic, conversions, revenue
		 FROM site_metrics WHERE site_id = $1 AND month >= $2 ORDER BY month ASC`,
		siteID, fromMonth)
	if err != nil {
		return nil, fmt.Errorf("list site metrics: %w", err)
	}
	defer rows.Close()

	var metrics []models.MonthlyMetric
	for rows.Next() {
		var m models.MonthlyMetric
		if err := rows.Scan(&m.Month, &m.Traffic, &m.Conversions, &m.Revenue); err != nil {
			return nil, fmt.Errorf("scan site metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (s *PostgresStore) UpsertSiteMetrics(ctx context.Context, siteID uuid.UUID, metrics []models.MonthlyMetric) error {
	for _, m := range metrics {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO site_metrics (site_id, month, traffic, conversions, revenue)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (site_id, month) DO UPDATE SET
			   traffic = EXCLUDED.traffic,
			   conversions = EXCLUDED.conversions,
			   revenue = EXCLUDED.revenue`,
			siteID, m.Month, m.Traffic, m.Conversions, m.Revenue)
		if err != nil {
			return fmt.Errorf("upsert site metric %s: %w", m.Month, err)
		}
	}
	return nil
}

// --- Forecasts ---

const forecastColumns = `id, project_id, site_id, recommendations, forecast, roi, assumptions, implementation_plan, provider, model, created_at`

func (s *PostgresStore) CreateForecast(ctx context.Context, forecast *models.ForecastResult) error {
	recs, err := json.Marshal(forecast.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	series, err := json.Marshal(forecast.Forecast)
	if err != nil {
		return fmt.Errorf("marshal forecast series: %w", err)
	}
	roi, err := json.Marshal(forecast.ROI)
	if err != nil {
		return fmt.Errorf("marshal roi: %w", err)
	}
	assumptions, err := json.Marshal(forecast.Assumptions)
	if err != nil {
		return fmt.Errorf("marshal assumptions: %w", err)
	}
	plan, err := json.Marshal(forecast.ImplementationPlan)
	if err != nil {
		return fmt.Errorf("marshal implementation plan: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO forecasts (`+forecastColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		forecast.ID, forecast.ProjectID, forecast.SiteID, recs, series, roi,
		assumptions, plan, forecast.Provider, forecast.Model, forecast.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create forecast: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetForecast(ctx context.Context, id uuid.UUID) (*models.ForecastResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+forecastColumns+` FROM forecasts WHERE id = $1`, id)
	f, err := scanForecast(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get forecast: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListProjectForecasts(ctx context.Context, projectID uuid.UUID) ([]*models.ForecastResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+forecastColumns+` FROM forecasts WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list project forecasts: %w", err)
	}
	defer rows.Close()

	var forecasts []*models.ForecastResult
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}

func (s *PostgresStore) GetLatestSiteForecast(ctx context.Context, siteID uuid.UUID) (*models.ForecastResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+forecastColumns+` FROM forecasts WHERE site_id = $1 ORDER BY created_at DESC LIMIT 1`,
		siteID)
	f, err := scanForecast(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest site forecast: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) DeleteForecast(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM forecasts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete forecast: %w", err)
	}
	return nil
}

// scanForecast reads one forecast row, unmarshalling the jsonb columns.
func scanForecast(row pgx.Row) (*models.ForecastResult, error) {
	var f models.ForecastResult
	var recs, series, roi, assumptions, plan []byte

	err := row.Scan(&f.ID, &f.ProjectID, &f.SiteID, &recs, &series, &roi,
		&assumptions, &plan, &f.Provider, &f.Model, &f.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(recs, &f.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal(series, &f.Forecast); err != nil {
		return nil, fmt.Errorf("unmarshal forecast series: %w", err)
	}
	if err := json.Unmarshal(roi, &f.ROI); err != nil {
		return nil, fmt.Errorf("unmarshal roi: %w", err)
	}
	if err := json.Unmarshal(assumptions, &f.Assumptions); err != nil {
		return nil, fmt.Errorf("unmarshal assumptions: %w", err)
	}
	if err := json.Unmarshal(plan, &f.ImplementationPlan); err != nil {
		return nil, fmt.Errorf("unmarshal implementation plan: %w", err)
	}
	return &f, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
