package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/pipeline"
	"github.com/sells-group/portfolio-report/internal/render"
	"github.com/sells-group/portfolio-report/internal/resilience"
	"github.com/sells-group/portfolio-report/internal/snapshot"
	"github.com/sells-group/portfolio-report/internal/store"
)

var now = time.Date(2026, 6, 30, 9, 0, 0, 0, time.UTC)

func dataset() *store.Dataset {
	return &store.Dataset{
		Projects: []model.Project{{ID: "p1", Name: "Sunset", Status: model.ProjectActive}},
		Units: []model.Unit{
			{ID: "u1", ProjectID: "p1", Kind: model.UnitApartment, Area: 50, Price: 100_000, Status: model.UnitSold},
		},
		Sales: []model.Sale{{ID: "s1", UnitID: "u1", SalePrice: 100_000, SaleDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{CORSOrigins: []string{"*"}},
		Report:  config.ReportConfig{DefaultMonths: 6, TopN: 5, Currency: "EUR", Locale: "hr"},
		Insight: config.DefaultInsightConfig(),
	}
}

func newTestServer(t *testing.T, gw store.Gateway, cfg *config.Config) *Server {
	t.Helper()
	engine := pipeline.New(gw, pipeline.Options{
		Fetch:   snapshot.Options{Retry: resilience.RetryConfig{MaxAttempts: 1}},
		Insight: cfg.Insight,
		TopN:    cfg.Report.TopN,
		Now:     func() time.Time { return now },
	})
	return New(engine, cfg, func() time.Time { return now })
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, store.NewMemory(dataset()), testConfig())
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","generation":0}`, rec.Body.String())
}

func TestRunReport_DefaultsAndPublishes(t *testing.T) {
	s := newTestServer(t, store.NewMemory(dataset()), testConfig())
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/reports/current", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/reports", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		RunID      string `json:"run_id"`
		Generation int    `json:"generation"`
		Report     struct {
			Request struct {
				ProjectFilter string `json:"project_filter"`
				Start         string `json:"start"`
				End           string `json:"end"`
			} `json:"request"`
			ExecutiveSummary struct {
				TotalRevenue float64 `json:"total_revenue"`
			} `json:"executive_summary"`
			CashFlow []json.RawMessage `json:"cash_flow"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.RunID)
	assert.Equal(t, 1, body.Generation)
	assert.Equal(t, "all", body.Report.Request.ProjectFilter)
	assert.Equal(t, "2025-12-30", body.Report.Request.Start)
	assert.Equal(t, "2026-06-30", body.Report.Request.End)
	assert.Equal(t, 100_000.0, body.Report.ExecutiveSummary.TotalRevenue)
	assert.Len(t, body.Report.CashFlow, 7)

	rec = do(t, h, http.MethodGet, "/api/reports/current", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunReport_InvalidRequests(t *testing.T) {
	s := newTestServer(t, store.NewMemory(dataset()), testConfig())
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/reports", `{"start":"2026-06-01","end":"2026-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/reports", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())
}

type brokenGateway struct{ store.Gateway }

func (brokenGateway) ListBankCredits(context.Context) ([]model.BankCredit, error) {
	return nil, errors.New("permission denied for table bank_credits")
}

func TestRunReport_FetchErrorIsUnavailable(t *testing.T) {
	s := newTestServer(t, brokenGateway{store.NewMemory(dataset())}, testConfig())
	rec := do(t, s.Handler(), http.MethodPost, "/api/reports", `{"project_filter":"all"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"data unavailable","collection":"bank_credits"}`, rec.Body.String())
}

func TestExport(t *testing.T) {
	s := newTestServer(t, store.NewMemory(dataset()), testConfig())
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/reports/current/export?format=xlsx", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/reports", "").Code)

	rec = do(t, h, http.MethodGet, "/api/reports/current/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, render.ContentType(render.FormatXLSX), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "portfolio-report-1.xlsx")
	assert.Equal(t, "PK", rec.Body.String()[:2], "xlsx is a zip archive")

	rec = do(t, h, http.MethodGet, "/api/reports/current/export?format=markdown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Executive summary")

	rec = do(t, h, http.MethodGet, "/api/reports/current/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type brokenRenderer struct{}

func (brokenRenderer) Render(io.Writer, []render.Page) error {
	return &render.RenderError{Format: "xlsx", Err: errors.New("out of memory")}
}

func TestExport_RenderErrorKeepsReport(t *testing.T) {
	s := newTestServer(t, store.NewMemory(dataset()), testConfig())
	s.newRenderer = func(string, render.Options) (render.Renderer, error) { return brokenRenderer{}, nil }
	h := s.Handler()
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/reports", "").Code)

	rec := do(t, h, http.MethodGet, "/api/reports/current/export?format=xlsx", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"export failed, retry"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/reports/current", "")
	assert.Equal(t, http.StatusOK, rec.Code, "the computed report stays published")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RatePerSec = 0.001
	cfg.Server.Burst = 1
	s := newTestServer(t, store.NewMemory(dataset()), cfg)
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/reports/current", "").Code)
	rec := do(t, h, http.MethodGet, "/api/reports/current", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code, "health is not limited")
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORSOrigins = []string{"https://console.example.com"}
	s := newTestServer(t, store.NewMemory(dataset()), cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "https://console.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "https://console.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
