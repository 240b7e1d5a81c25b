package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"temperature-stats/internal/models"
	"temperature-stats/internal/repository"
	"temperature-stats/internal/services"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

const knownRunID = "6f1c2a8e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"

type stubRepo struct {
	runs  []*models.AnalysisRun
	err   error
	reads int
}

func (s *stubRepo) SaveRun(context.Context, *models.AnalysisRun, []*models.MonthlyStatistics, *models.YearlyStatistics) error {
	return s.err
}

func (s *stubRepo) GetRun(_ context.Context, runID string) (*models.AnalysisRun, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	for _, run := range s.runs {
		if run.RunID == runID {
			return run, nil
		}
	}
	return nil, &repository.NotFoundError{Resource: "analysis_run", ID: runID}
}

func (s *stubRepo) ListRuns(context.Context, int, int) ([]*models.AnalysisRun, error) {
	return s.runs, s.err
}

func (s *stubRepo) GetMonthlyStatistics(context.Context, string) ([]*models.MonthlyStatistics, error) {
	return nil, s.err
}

func (s *stubRepo) GetYearlyStatistics(_ context.Context, runID string) (*models.YearlyStatistics, error) {
	return nil, &repository.NotFoundError{Resource: "yearly_temperature_statistics", ID: runID}
}

func (s *stubRepo) HealthCheck(context.Context) error {
	return s.err
}

type testServer struct {
	router    *mux.Router
	collector *metrics.Collector
	stats     *services.StatisticsService
}

func newTestServer(t *testing.T, lines []string, repo repository.StatisticsRepository) *testServer {
	t.Helper()

	path := filepath.Join(t.TempDir(), "observations.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	logger := logging.NewNopLogger()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	analysis := services.NewAnalysisService(repo, logger, collector)
	stats := services.NewStatisticsService(analysis, path, false, logger, collector)

	var history *services.HistoryService
	if repo != nil {
		history = services.NewHistoryService(repo, logger, collector)
	}

	router := mux.NewRouter()
	NewTemperatureHandler(stats, history, logger, collector).RegisterRoutes(router)

	return &testServer{router: router, collector: collector, stats: stats}
}

func (s *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

var sampleLines = []string{
	"2024;01;01;00;00;-5",
	"2024;01;02;00;00;-1",
	"2024;07;01;00;00;25",
	"2024;07;02;00;00;abc",
	"2024;13;01;00;00;10",
}

func TestHandlers_BeforeFirstRefresh(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)

	for _, target := range []string{
		"/api/temperature/stats?month=1",
		"/api/temperature/stats/monthly",
		"/api/temperature/stats/yearly",
		"/api/temperature/rejections",
		"/health",
	} {
		rec := srv.get(t, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
}

func TestGetMonthStats(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)
	require.NoError(t, srv.stats.Refresh(context.Background()))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		checkBody  func(t *testing.T, body []byte)
	}{
		{
			name:       "month with data",
			target:     "/api/temperature/stats?month=1",
			wantStatus: http.StatusOK,
			checkBody: func(t *testing.T, body []byte) {
				var resp MonthResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, 1, resp.Month)
				assert.InDelta(t, -3.0, resp.Stats.Average, 1e-9)
				assert.Equal(t, -5, resp.Stats.Minimum)
				assert.Equal(t, -1, resp.Stats.Maximum)
				assert.Equal(t, 2, resp.Stats.Count)
				assert.NotEmpty(t, resp.RunID)
			},
		},
		{
			name:       "month without data",
			target:     "/api/temperature/stats?month=3",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "month out of range",
			target:     "/api/temperature/stats?month=13",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "month not a number",
			target:     "/api/temperature/stats?month=july",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "month missing",
			target:     "/api/temperature/stats",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.get(t, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.checkBody != nil {
				tt.checkBody(t, rec.Body.Bytes())
			}
		})
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(srv.collector.APIRequestsTotal.WithLabelValues("/api/temperature/stats", http.MethodGet, "400")))
}

func TestGetMonthlyStats(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)
	require.NoError(t, srv.stats.Refresh(context.Background()))

	rec := srv.get(t, "/api/temperature/stats/monthly")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MonthlyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Months, 12)
	assert.NotNil(t, resp.Months[0].Stats)
	assert.Nil(t, resp.Months[1].Stats)
	require.NotNil(t, resp.Months[6].Stats)
	assert.Equal(t, 25, resp.Months[6].Stats.Maximum)
}

func TestGetYearlyStats(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)
	require.NoError(t, srv.stats.Refresh(context.Background()))

	rec := srv.get(t, "/api/temperature/stats/yearly")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp YearlyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Stats.Count)
	assert.Equal(t, -5, resp.Stats.Minimum)
	assert.Equal(t, 25, resp.Stats.Maximum)
	assert.InDelta(t, 19.0/3.0, resp.Stats.Average, 1e-9)
}

func TestGetYearlyStats_NoValidData(t *testing.T) {
	srv := newTestServer(t, []string{"broken;line"}, nil)
	require.NoError(t, srv.stats.Refresh(context.Background()))

	rec := srv.get(t, "/api/temperature/stats/yearly")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRejections(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)
	require.NoError(t, srv.stats.Refresh(context.Background()))

	rec := srv.get(t, "/api/temperature/rejections")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RejectionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, 4, resp.Rejections[0].Line)
	assert.Equal(t, "conversion", resp.Rejections[0].Kind)
	assert.Equal(t, 5, resp.Rejections[1].Line)
	assert.Equal(t, "month_range", resp.Rejections[1].Kind)
	assert.Equal(t, []string{"2024", "13", "01", "00", "00", "10"}, resp.Rejections[1].Contents)
}

func TestRunsRoutesRequireHistory(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)

	rec := srv.get(t, "/api/runs")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRunsAndGetRun(t *testing.T) {
	repo := &stubRepo{runs: []*models.AnalysisRun{{RunID: knownRunID, Source: "a.csv", AcceptedRecords: 3}}}
	srv := newTestServer(t, sampleLines, repo)

	rec := srv.get(t, "/api/runs?page=1&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []models.AnalysisRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, knownRunID, runs[0].RunID)

	rec = srv.get(t, "/api/runs/"+knownRunID)
	require.Equal(t, http.StatusOK, rec.Code)
	var details services.RunDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, "a.csv", details.Run.Source)
	assert.Nil(t, details.Yearly)

	rec = srv.get(t, "/api/runs/00000000-0000-4000-8000-000000000000")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRun_MalformedID(t *testing.T) {
	repo := &stubRepo{err: errors.New("pq: invalid input syntax for type uuid")}
	srv := newTestServer(t, sampleLines, repo)

	for _, id := range []string{"abc", "run-1", "6f1c2a8e-3b4d"} {
		rec := srv.get(t, "/api/runs/"+id)
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
	}

	assert.Zero(t, repo.reads, "malformed ids never reach the database")
	assert.Equal(t, 0.0, testutil.ToFloat64(srv.collector.APIErrorsTotal.WithLabelValues("internal_error", "/api/runs/{id}")))
	assert.Equal(t, 3.0, testutil.ToFloat64(srv.collector.APIRequestsTotal.WithLabelValues("/api/runs/{id}", http.MethodGet, "400")))
}

func TestGetMonthlyStats_MatchesRunID(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)
	require.NoError(t, srv.stats.Refresh(context.Background()))
	current, err := srv.stats.Current()
	require.NoError(t, err)

	rec := srv.get(t, "/api/temperature/stats/monthly")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MonthlyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, current.RunID, resp.RunID)
	assert.Equal(t, current.MonthEntries(), resp.Months)
}

func TestGetRejections_ZeroValueIsKept(t *testing.T) {
	srv := newTestServer(t, []string{"2024;00;01;00;00;10"}, nil)
	require.NoError(t, srv.stats.Refresh(context.Background()))

	rec := srv.get(t, "/api/temperature/rejections")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":0`)
	assert.Contains(t, rec.Body.String(), `"kind":"month_range"`)
}

func TestListRuns_EmptyIsArray(t *testing.T) {
	srv := newTestServer(t, sampleLines, &stubRepo{})

	rec := srv.get(t, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListRuns_DatabaseError(t *testing.T) {
	srv := newTestServer(t, sampleLines, &stubRepo{err: errors.New("connection refused")})

	rec := srv.get(t, "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.collector.APIErrorsTotal.WithLabelValues("internal_error", "/api/runs")))
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		repo       repository.StatisticsRepository
		wantStatus int
		wantState  string
	}{
		{"memory only", nil, http.StatusOK, "healthy"},
		{"database ok", &stubRepo{}, http.StatusOK, "healthy"},
		{"database down", &stubRepo{err: errors.New("down")}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, sampleLines, tt.repo)
			require.NoError(t, srv.stats.Refresh(context.Background()))

			rec := srv.get(t, "/health")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body["status"])
		})
	}
}

func TestDocs(t *testing.T) {
	srv := newTestServer(t, sampleLines, nil)

	rec := srv.get(t, "/api/docs/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)
	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/api/temperature/stats")
	assert.Contains(t, paths, "/api/runs/{id}")

	rec = srv.get(t, "/api/docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Temperature Statistics API Documentation")
}
