package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roshan4665/fundfolio/internal/app"
	"github.com/roshan4665/fundfolio/internal/common"
	"github.com/roshan4665/fundfolio/internal/ingest"
	"github.com/roshan4665/fundfolio/internal/models"
	"github.com/roshan4665/fundfolio/internal/services/catalog"
	"github.com/roshan4665/fundfolio/internal/services/portfolio"
)

// mockCatalogService implements interfaces.CatalogService for testing.
type mockCatalogService struct {
	refresh     func(ctx context.Context) ([]models.MutualFund, error)
	searchFunds func(ctx context.Context, query string) ([]models.MutualFund, error)
	getFund     func(ctx context.Context, id string) (*models.MutualFund, error)
}

func (m *mockCatalogService) Refresh(ctx context.Context) ([]models.MutualFund, error) {
	if m.refresh != nil {
		return m.refresh(ctx)
	}
	return nil, nil
}

func (m *mockCatalogService) Funds(ctx context.Context) ([]models.MutualFund, error) {
	return m.SearchFunds(ctx, "")
}

func (m *mockCatalogService) SearchFunds(ctx context.Context, query string) ([]models.MutualFund, error) {
	if m.searchFunds != nil {
		return m.searchFunds(ctx, query)
	}
	return nil, nil
}

func (m *mockCatalogService) GetFund(ctx context.Context, id string) (*models.MutualFund, error) {
	if m.getFund != nil {
		return m.getFund(ctx, id)
	}
	return nil, catalog.ErrFundNotFound
}

// mockPortfolioService implements interfaces.PortfolioService for testing.
type mockPortfolioService struct {
	holdings      func(ctx context.Context) ([]models.PortfolioHolding, error)
	addHolding    func(ctx context.Context, fundID string, weekly float64) (*models.PortfolioHolding, error)
	updateHolding func(ctx context.Context, fundID string, weekly float64) (*models.PortfolioHolding, error)
	removeHolding func(ctx context.Context, fundID string) error
	forecast      func(ctx context.Context) ([]models.ForecastPoint, error)
	chart         func(ctx context.Context) ([]byte, error)
}

func (m *mockPortfolioService) Holdings(ctx context.Context) ([]models.PortfolioHolding, error) {
	if m.holdings != nil {
		return m.holdings(ctx)
	}
	return nil, nil
}

func (m *mockPortfolioService) AddHolding(ctx context.Context, fundID string, weekly float64) (*models.PortfolioHolding, error) {
	if m.addHolding != nil {
		return m.addHolding(ctx, fundID, weekly)
	}
	return nil, portfolio.ErrInvalidInvestment
}

func (m *mockPortfolioService) UpdateHolding(ctx context.Context, fundID string, weekly float64) (*models.PortfolioHolding, error) {
	if m.updateHolding != nil {
		return m.updateHolding(ctx, fundID, weekly)
	}
	return nil, portfolio.ErrHoldingNotFound
}

func (m *mockPortfolioService) RemoveHolding(ctx context.Context, fundID string) error {
	if m.removeHolding != nil {
		return m.removeHolding(ctx, fundID)
	}
	return portfolio.ErrHoldingNotFound
}

func (m *mockPortfolioService) Allocation(ctx context.Context) (*models.AllocationResult, error) {
	return &models.AllocationResult{LargeCapPercentage: 70, MidCapPercentage: 20, SmallCapPercentage: 10}, nil
}

func (m *mockPortfolioService) Stats(ctx context.Context) (*models.AggregateStats, error) {
	return &models.AggregateStats{TotalWeeklyInvestment: 500}, nil
}

func (m *mockPortfolioService) Forecast(ctx context.Context) ([]models.ForecastPoint, error) {
	if m.forecast != nil {
		return m.forecast(ctx)
	}
	return nil, nil
}

func (m *mockPortfolioService) ForecastChartPNG(ctx context.Context) ([]byte, error) {
	if m.chart != nil {
		return m.chart(ctx)
	}
	return nil, portfolio.ErrEmptyForecast
}

func (m *mockPortfolioService) Flush(ctx context.Context) error { return nil }

func fptr(v float64) *float64 { return &v }

func testFund(id, name string) models.MutualFund {
	return models.MutualFund{ID: id, Name: name, Cagr3y: fptr(12.0)}
}

func newTestServer(catalogSvc *mockCatalogService, portfolioSvc *mockPortfolioService) *Server {
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	if catalogSvc == nil {
		catalogSvc = &mockCatalogService{}
	}
	if portfolioSvc == nil {
		portfolioSvc = &mockPortfolioService{}
	}
	a := &app.App{
		Config:           cfg,
		Logger:           logger,
		CatalogService:   catalogSvc,
		PortfolioService: portfolioSvc,
	}
	return NewServer(a)
}

func doRequest(t *testing.T, srv *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("expected status ok, got %q", got["status"])
	}
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/version", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["version"] == "" {
		t.Error("expected non-empty version")
	}
}

func TestHandleCatalogRefresh(t *testing.T) {
	svc := &mockCatalogService{
		refresh: func(ctx context.Context) ([]models.MutualFund, error) {
			return []models.MutualFund{testFund("alpha-0", "Alpha"), testFund("beta-1", "Beta")}, nil
		},
	}
	srv := newTestServer(svc, nil)
	rec := doRequest(t, srv, http.MethodPost, "/api/catalog/refresh", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got map[string]int
	json.NewDecoder(rec.Body).Decode(&got)
	if got["funds"] != 2 {
		t.Errorf("expected 2 funds, got %d", got["funds"])
	}
}

func TestHandleCatalogRefresh_AllSourcesFailed(t *testing.T) {
	svc := &mockCatalogService{
		refresh: func(ctx context.Context) ([]models.MutualFund, error) {
			return nil, ingest.ErrNoFundData
		},
	}
	srv := newTestServer(svc, nil)
	rec := doRequest(t, srv, http.MethodPost, "/api/catalog/refresh", "")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}

func TestHandleCatalogRefresh_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/catalog/refresh", "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestHandleFundList_PassesQuery(t *testing.T) {
	var gotQuery string
	svc := &mockCatalogService{
		searchFunds: func(ctx context.Context, query string) ([]models.MutualFund, error) {
			gotQuery = query
			return []models.MutualFund{testFund("alpha-0", "Alpha Growth")}, nil
		},
	}
	srv := newTestServer(svc, nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/funds?q=alpha", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gotQuery != "alpha" {
		t.Errorf("expected query 'alpha', got %q", gotQuery)
	}
	var got struct {
		Funds []models.MutualFund `json:"funds"`
		Count int                 `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Count != 1 || len(got.Funds) != 1 {
		t.Fatalf("expected 1 fund, got count=%d len=%d", got.Count, len(got.Funds))
	}
	if got.Funds[0].Name != "Alpha Growth" {
		t.Errorf("unexpected fund name %q", got.Funds[0].Name)
	}
}

func TestHandleFundGet(t *testing.T) {
	svc := &mockCatalogService{
		getFund: func(ctx context.Context, id string) (*models.MutualFund, error) {
			if id == "alpha-0" {
				f := testFund("alpha-0", "Alpha")
				return &f, nil
			}
			return nil, catalog.ErrFundNotFound
		},
	}
	srv := newTestServer(svc, nil)

	rec := doRequest(t, srv, http.MethodGet, "/api/funds/alpha-0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got models.MutualFund
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != "alpha-0" {
		t.Errorf("expected id alpha-0, got %q", got.ID)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/funds/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandlePortfolioList(t *testing.T) {
	svc := &mockPortfolioService{
		holdings: func(ctx context.Context) ([]models.PortfolioHolding, error) {
			return []models.PortfolioHolding{
				{Fund: testFund("alpha-0", "Alpha"), WeeklyInvestment: 100},
			}, nil
		},
	}
	srv := newTestServer(nil, svc)
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got struct {
		Holdings []models.PortfolioHolding `json:"holdings"`
		Count    int                       `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Count != 1 {
		t.Fatalf("expected count 1, got %d", got.Count)
	}
	if got.Holdings[0].WeeklyInvestment != 100 {
		t.Errorf("expected weekly investment 100, got %f", got.Holdings[0].WeeklyInvestment)
	}
}

func TestHandleHoldingAdd(t *testing.T) {
	svc := &mockPortfolioService{
		addHolding: func(ctx context.Context, fundID string, weekly float64) (*models.PortfolioHolding, error) {
			return &models.PortfolioHolding{Fund: testFund(fundID, "Alpha"), WeeklyInvestment: weekly}, nil
		},
	}
	srv := newTestServer(nil, svc)
	rec := doRequest(t, srv, http.MethodPost, "/api/portfolio/holdings", `{"fundId":"alpha-0","weeklyInvestment":250}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.PortfolioHolding
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Fund.ID != "alpha-0" || got.WeeklyInvestment != 250 {
		t.Errorf("unexpected holding: %+v", got)
	}
}

func TestHandleHoldingAdd_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		addErr     error
		wantStatus int
	}{
		{"missing fund id", `{"weeklyInvestment":100}`, nil, http.StatusBadRequest},
		{"invalid JSON", `{not json`, nil, http.StatusBadRequest},
		{"non-positive investment", `{"fundId":"alpha-0","weeklyInvestment":0}`, portfolio.ErrInvalidInvestment, http.StatusBadRequest},
		{"duplicate holding", `{"fundId":"alpha-0","weeklyInvestment":100}`, portfolio.ErrDuplicateHolding, http.StatusConflict},
		{"unknown fund", `{"fundId":"nope-9","weeklyInvestment":100}`, catalog.ErrFundNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPortfolioService{
				addHolding: func(ctx context.Context, fundID string, weekly float64) (*models.PortfolioHolding, error) {
					return nil, tt.addErr
				},
			}
			srv := newTestServer(nil, svc)
			rec := doRequest(t, srv, http.MethodPost, "/api/portfolio/holdings", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleHoldingUpdate(t *testing.T) {
	svc := &mockPortfolioService{
		updateHolding: func(ctx context.Context, fundID string, weekly float64) (*models.PortfolioHolding, error) {
			if fundID != "alpha-0" {
				return nil, portfolio.ErrHoldingNotFound
			}
			return &models.PortfolioHolding{Fund: testFund(fundID, "Alpha"), WeeklyInvestment: weekly}, nil
		},
	}
	srv := newTestServer(nil, svc)

	rec := doRequest(t, srv, http.MethodPut, "/api/portfolio/holdings/alpha-0", `{"weeklyInvestment":300}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got models.PortfolioHolding
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.WeeklyInvestment != 300 {
		t.Errorf("expected weekly investment 300, got %f", got.WeeklyInvestment)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/portfolio/holdings/missing", `{"weeklyInvestment":300}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleHoldingRemove(t *testing.T) {
	removed := ""
	svc := &mockPortfolioService{
		removeHolding: func(ctx context.Context, fundID string) error {
			if fundID != "alpha-0" {
				return portfolio.ErrHoldingNotFound
			}
			removed = fundID
			return nil
		},
	}
	srv := newTestServer(nil, svc)

	rec := doRequest(t, srv, http.MethodDelete, "/api/portfolio/holdings/alpha-0", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if removed != "alpha-0" {
		t.Errorf("expected removal of alpha-0, got %q", removed)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/portfolio/holdings/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandlePortfolioAllocation(t *testing.T) {
	srv := newTestServer(nil, &mockPortfolioService{})
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/allocation", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got models.AllocationResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.LargeCapPercentage != 70 {
		t.Errorf("expected large cap 70, got %f", got.LargeCapPercentage)
	}
}

func TestHandlePortfolioStats(t *testing.T) {
	srv := newTestServer(nil, &mockPortfolioService{})
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/stats", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got models.AggregateStats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.TotalWeeklyInvestment != 500 {
		t.Errorf("expected total 500, got %f", got.TotalWeeklyInvestment)
	}
}

func TestHandlePortfolioForecast_EmptySeriesIsArray(t *testing.T) {
	srv := newTestServer(nil, &mockPortfolioService{})
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/forecast", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"forecast":[]`) {
		t.Errorf("expected empty forecast array in body, got %s", body)
	}
}

func TestHandlePortfolioForecast(t *testing.T) {
	svc := &mockPortfolioService{
		forecast: func(ctx context.Context) ([]models.ForecastPoint, error) {
			return []models.ForecastPoint{
				{Year: 0, ProjectedValue: 0, TotalInvested: 0},
				{Year: 1, ProjectedValue: 5400, TotalInvested: 5200},
			}, nil
		},
	}
	srv := newTestServer(nil, svc)
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/forecast", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var got struct {
		Forecast []models.ForecastPoint `json:"forecast"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got.Forecast) != 2 || got.Forecast[1].ProjectedValue != 5400 {
		t.Errorf("unexpected forecast: %+v", got.Forecast)
	}
}

func TestHandlePortfolioForecastChart(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G'}
	svc := &mockPortfolioService{
		chart: func(ctx context.Context) ([]byte, error) {
			return pngHeader, nil
		},
	}
	srv := newTestServer(nil, svc)
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/forecast/chart", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png content type, got %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngHeader) {
		t.Errorf("unexpected body bytes: %v", rec.Body.Bytes())
	}
}

func TestHandlePortfolioForecastChart_EmptyForecast(t *testing.T) {
	srv := newTestServer(nil, &mockPortfolioService{})
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/forecast/chart", "")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestRoutePortfolio_UnknownSubpath(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := doRequest(t, srv, http.MethodGet, "/api/portfolio/holdings/alpha-0/extra", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleShutdown_DevMode(t *testing.T) {
	srv := newTestServer(nil, nil)
	ch := make(chan struct{}, 1)
	srv.SetShutdownChannel(ch)

	rec := doRequest(t, srv, http.MethodPost, "/api/shutdown", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("shutdown channel was not signaled")
	}
}

func TestHandleShutdown_Production(t *testing.T) {
	srv := newTestServer(nil, nil)
	srv.app.Config.Environment = "production"

	rec := doRequest(t, srv, http.MethodPost, "/api/shutdown", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}
