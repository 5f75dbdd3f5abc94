package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rankcast/rankcast/internal/forecast"
	"github.com/rankcast/rankcast/internal/store"
	"github.com/rankcast/rankcast/pkg/models"
)

// --- mock ForecastService ---

type mockService struct {
	generateFn func(req forecast.GenerateRequest) (*models.ForecastResult, error)
	getFn      func(id uuid.UUID) (*models.ForecastResult, error)
	listFn     func(projectID uuid.UUID) ([]*models.ForecastResult, error)
	latestFn   func(siteID uuid.UUID) (*models.ForecastResult, error)
	deleteFn   func(id uuid.UUID) error
	varianceFn func(id uuid.UUID) (*forecast.VarianceReport, error)
}

func (m *mockService) GenerateForecast(_ context.Context, req forecast.GenerateRequest) (*models.ForecastResult, error) {
	return m.generateFn(req)
}
func (m *mockService) GetForecast(_ context.Context, id uuid.UUID) (*models.ForecastResult, error) {
	return m.getFn(id)
}
func (m *mockService) GetProjectForecasts(_ context.Context, projectID uuid.UUID) ([]*models.ForecastResult, error) {
	return m.listFn(projectID)
}
func (m *mockService) GetLatestSiteForecast(_ context.Context, siteID uuid.UUID) (*models.ForecastResult, error) {
	return m.latestFn(siteID)
}
func (m *mockService) DeleteForecast(_ context.Context, id uuid.UUID) error {
	return m.deleteFn(id)
}
func (m *mockService) TrackActualVsForecast(_ context.Context, id uuid.UUID) (*forecast.VarianceReport, error) {
	return m.varianceFn(id)
}

// --- helpers ---

func sampleForecast() *models.ForecastResult {
	return &models.ForecastResult{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		SiteID:    uuid.New(),
		Forecast: models.ForecastSeries{
			Traffic: []models.ProjectedMetric{
				{Month: "2025-10", Value: 1200, LowerBound: 1000, UpperBound: 1400},
			},
			Conversions: []models.ProjectedMetric{
				{Month: "2025-10", Value: 36, LowerBound: 28, UpperBound: 44},
			},
		},
		Provider:  "mock",
		Model:     "mock-v1",
		CreatedAt: time.Now().UTC(),
	}
}

func testRouter(svc ForecastService) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/forecasts", NewGenerateForecastHandler(svc))
	r.Get("/api/v1/forecasts/{forecastID}", NewGetForecastHandler(svc))
	r.Delete("/api/v1/forecasts/{forecastID}", NewDeleteForecastHandler(svc))
	r.Get("/api/v1/forecasts/{forecastID}/variance", NewVarianceHandler(svc))
	r.Get("/api/v1/projects/{projectID}/forecasts", NewListProjectForecastsHandler(svc))
	r.Get("/api/v1/sites/{siteID}/forecasts/latest", NewLatestSiteForecastHandler(svc))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error.Code
}

func generateBody() map[string]any {
	return map[string]any{
		"project_id": uuid.New().String(),
		"site_id":    uuid.New().String(),
		"recommendations": []map[string]any{
			{"type": "technical", "description": "fix crawl errors", "impact": "high", "effort": "low"},
		},
		"timeframe_months": 3,
	}
}

// --- generate tests ---

func TestGenerateForecastHandler_Success(t *testing.T) {
	f := sampleForecast()
	var captured forecast.GenerateRequest
	svc := &mockService{generateFn: func(req forecast.GenerateRequest) (*models.ForecastResult, error) {
		captured = req
		return f, nil
	}}

	body := generateBody()
	body["project_name"] = "Acme Outdoor"
	body["industry"] = "e-commerce"
	rec := doJSON(t, testRouter(svc), http.MethodPost, "/api/v1/forecasts", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Project.Name != "Acme Outdoor" || captured.Project.Industry != "e-commerce" {
		t.Errorf("project context not passed through: %+v", captured.Project)
	}
	if captured.TimeframeMonths != 3 {
		t.Errorf("expected timeframe 3, got %d", captured.TimeframeMonths)
	}

	var env struct {
		Data models.ForecastResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.ID != f.ID {
		t.Errorf("unexpected forecast id: %s", env.Data.ID)
	}
}

func TestGenerateForecastHandler_InvalidJSON(t *testing.T) {
	svc := &mockService{}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/forecasts", bytes.NewReader([]byte("{invalid")))
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if errCode(t, rec) != "INVALID_REQUEST" {
		t.Error("expected INVALID_REQUEST")
	}
}

func TestGenerateForecastHandler_BadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"invalid project id", func(b map[string]any) { b["project_id"] = "not-a-uuid" }},
		{"invalid site id", func(b map[string]any) { b["site_id"] = "" }},
		{"no recommendations", func(b map[string]any) { delete(b, "recommendations") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{generateFn: func(_ forecast.GenerateRequest) (*models.ForecastResult, error) {
				t.Fatal("service should not be called")
				return nil, nil
			}}
			body := generateBody()
			tt.mutate(body)
			rec := doJSON(t, testRouter(svc), http.MethodPost, "/api/v1/forecasts", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestGenerateForecastHandler_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			"provider unavailable",
			&forecast.GenerationError{Stage: "provider call", Err: models.ErrProviderUnavailable},
			http.StatusBadGateway, "UPSTREAM_UNAVAILABLE",
		},
		{
			"inference timeout",
			&forecast.GenerationError{Stage: "provider call", Err: models.ErrInferenceTimeout},
			http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT",
		},
		{
			"unusable reply",
			&forecast.GenerationError{Stage: "response validation", Err: fmt.Errorf("%w: roi is required", forecast.ErrParse)},
			http.StatusBadGateway, "UPSTREAM_INVALID_RESPONSE",
		},
		{
			"unexpected error",
			errors.New("boom"),
			http.StatusInternalServerError, "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{generateFn: func(_ forecast.GenerateRequest) (*models.ForecastResult, error) {
				return nil, tt.err
			}}
			rec := doJSON(t, testRouter(svc), http.MethodPost, "/api/v1/forecasts", generateBody())
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := errCode(t, rec); got != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, got)
			}
		})
	}
}

// --- read path tests ---

func TestGetForecastHandler_Success(t *testing.T) {
	f := sampleForecast()
	svc := &mockService{getFn: func(id uuid.UUID) (*models.ForecastResult, error) {
		if id != f.ID {
			t.Errorf("expected id %s, got %s", f.ID, id)
		}
		return f, nil
	}}

	rec := doJSON(t, testRouter(svc), http.MethodGet, "/api/v1/forecasts/"+f.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetForecastHandler_NotFound(t *testing.T) {
	svc := &mockService{getFn: func(_ uuid.UUID) (*models.ForecastResult, error) {
		return nil, store.ErrNotFound
	}}

	rec := doJSON(t, testRouter(svc), http.MethodGet, "/api/v1/forecasts/"+uuid.New().String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if errCode(t, rec) != "NOT_FOUND" {
		t.Error("expected NOT_FOUND")
	}
}

func TestGetForecastHandler_BadID(t *testing.T) {
	svc := &mockService{}
	rec := doJSON(t, testRouter(svc), http.MethodGet, "/api/v1/forecasts/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListProjectForecastsHandler_EmptyIsArray(t *testing.T) {
	svc := &mockService{listFn: func(_ uuid.UUID) ([]*models.ForecastResult, error) {
		return nil, nil
	}}

	rec := doJSON(t, testRouter(svc), http.MethodGet,
		"/api/v1/projects/"+uuid.New().String()+"/forecasts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var env struct {
		Data []models.ForecastResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data == nil {
		t.Error("expected empty array, got null")
	}
}

func TestLatestSiteForecastHandler_AbsentIsNull(t *testing.T) {
	svc := &mockService{latestFn: func(_ uuid.UUID) (*models.ForecastResult, error) {
		return nil, nil
	}}

	rec := doJSON(t, testRouter(svc), http.MethodGet,
		"/api/v1/sites/"+uuid.New().String()+"/forecasts/latest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Data *models.ForecastResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data != nil {
		t.Errorf("expected null data, got %+v", env.Data)
	}
}

func TestDeleteForecastHandler_NoContent(t *testing.T) {
	called := false
	svc := &mockService{deleteFn: func(_ uuid.UUID) error {
		called = true
		return nil
	}}

	rec := doJSON(t, testRouter(svc), http.MethodDelete, "/api/v1/forecasts/"+uuid.New().String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if !called {
		t.Error("delete was not invoked")
	}
}

func TestVarianceHandler_Success(t *testing.T) {
	fid := uuid.New()
	svc := &mockService{varianceFn: func(id uuid.UUID) (*forecast.VarianceReport, error) {
		return &forecast.VarianceReport{
			ForecastID: id,
			Variance: []forecast.MonthVariance{
				{Month: "2025-10", Actual: 1200, Forecasted: 1150, Percentage: 4.35, WithinBounds: true},
			},
			Accuracy: 100,
		}, nil
	}}

	rec := doJSON(t, testRouter(svc), http.MethodGet,
		"/api/v1/forecasts/"+fid.String()+"/variance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var env struct {
		Data forecast.VarianceReport `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Accuracy != 100 {
		t.Errorf("expected accuracy 100, got %v", env.Data.Accuracy)
	}
	if len(env.Data.Variance) != 1 || env.Data.Variance[0].Percentage != 4.35 {
		t.Errorf("unexpected variance payload: %+v", env.Data.Variance)
	}
}

func TestVarianceHandler_UnknownForecast(t *testing.T) {
	svc := &mockService{varianceFn: func(_ uuid.UUID) (*forecast.VarianceReport, error) {
		return nil, store.ErrNotFound
	}}

	rec := doJSON(t, testRouter(svc), http.MethodGet,
		"/api/v1/forecasts/"+uuid.New().String()+"/variance", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
