package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"temperature-stats/internal/models"
	"temperature-stats/internal/repository"
	"temperature-stats/internal/services"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

// TemperatureHandler serves statistics of the current snapshot and, when
// persistence is enabled, of stored runs
type TemperatureHandler struct {
	statsService   *services.StatisticsService
	historyService *services.HistoryService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewTemperatureHandler creates a new temperature handler. historyService
// may be nil, in which case the run endpoints are not registered.
func NewTemperatureHandler(
	statsService *services.StatisticsService,
	historyService *services.HistoryService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *TemperatureHandler {
	return &TemperatureHandler{
		statsService:   statsService,
		historyService: historyService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MonthResponse is the body of GET /api/temperature/stats
type MonthResponse struct {
	RunID string       `json:"run_id"`
	Month int          `json:"month"`
	Stats models.Stats `json:"stats"`
}

// MonthlyResponse is the body of GET /api/temperature/stats/monthly
type MonthlyResponse struct {
	RunID  string                `json:"run_id"`
	Months []services.MonthEntry `json:"months"`
}

// YearlyResponse is the body of GET /api/temperature/stats/yearly
type YearlyResponse struct {
	RunID string       `json:"run_id"`
	Stats models.Stats `json:"stats"`
}

// RejectionsResponse is the body of GET /api/temperature/rejections
type RejectionsResponse struct {
	RunID      string           `json:"run_id"`
	Total      int              `json:"total"`
	Rejections []RejectionEntry `json:"rejections"`
}

// RejectionEntry describes one skipped input record
type RejectionEntry struct {
	Line     int      `json:"line"`
	Kind     string   `json:"kind"`
	Reason   string   `json:"reason"`
	Value    int      `json:"value"`
	Contents []string `json:"contents"`
}

// GetMonthStats handles GET /api/temperature/stats?month=N
func (h *TemperatureHandler) GetMonthStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/temperature/stats"
	defer h.observe(endpoint, time.Now())

	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || !models.ValidMonth(month) {
		h.sendError(w, r, endpoint, "invalid month, expected integer between 1 and 12", http.StatusBadRequest)
		return
	}

	current, ok := h.current(w, r, endpoint)
	if !ok {
		return
	}

	stats, found := current.Aggregator.MonthStats(month)
	if !found {
		h.sendError(w, r, endpoint, "no data for this month", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, MonthResponse{RunID: current.RunID, Month: month, Stats: stats}, http.StatusOK)
}

// GetMonthlyStats handles GET /api/temperature/stats/monthly
func (h *TemperatureHandler) GetMonthlyStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/temperature/stats/monthly"
	defer h.observe(endpoint, time.Now())

	current, ok := h.current(w, r, endpoint)
	if !ok {
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, MonthlyResponse{RunID: current.RunID, Months: current.MonthEntries()}, http.StatusOK)
}

// GetYearlyStats handles GET /api/temperature/stats/yearly
func (h *TemperatureHandler) GetYearlyStats(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/temperature/stats/yearly"
	defer h.observe(endpoint, time.Now())

	current, ok := h.current(w, r, endpoint)
	if !ok {
		return
	}

	stats, found := current.Aggregator.YearStats()
	if !found {
		h.sendError(w, r, endpoint, "no valid temperature data", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, YearlyResponse{RunID: current.RunID, Stats: stats}, http.StatusOK)
}

// GetRejections handles GET /api/temperature/rejections
func (h *TemperatureHandler) GetRejections(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/temperature/rejections"
	defer h.observe(endpoint, time.Now())

	current, ok := h.current(w, r, endpoint)
	if !ok {
		return
	}

	entries := make([]RejectionEntry, 0, len(current.Rejections))
	for _, rej := range current.Rejections {
		entries = append(entries, RejectionEntry{
			Line:     rej.LineNumber,
			Kind:     rej.Kind.String(),
			Reason:   rej.Error(),
			Value:    rej.Value,
			Contents: rej.Fields,
		})
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, RejectionsResponse{RunID: current.RunID, Total: len(entries), Rejections: entries}, http.StatusOK)
}

// ListRuns handles GET /api/runs
func (h *TemperatureHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/runs"
	ctx := r.Context()
	defer h.observe(endpoint, time.Now())

	page, limit := 1, 50
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	runs, err := h.historyService.ListRuns(ctx, limit, (page-1)*limit)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_RUNS_ERROR] Failed to list runs", logging.Fields{
			"page":  page,
			"limit": limit,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, endpoint, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*models.AnalysisRun{}
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, runs, http.StatusOK)
}

// GetRun handles GET /api/runs/{id}
func (h *TemperatureHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/runs/{id}"
	ctx := r.Context()
	defer h.observe(endpoint, time.Now())

	runID := mux.Vars(r)["id"]
	if _, err := uuid.Parse(runID); err != nil {
		h.sendError(w, r, endpoint, "run id must be a UUID", http.StatusBadRequest)
		return
	}

	details, err := h.historyService.GetRun(ctx, runID)
	if repository.IsNotFound(err) {
		h.sendError(w, r, endpoint, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error(ctx, "[API_GET_RUN_ERROR] Failed to get run", logging.Fields{
			"run_id": runID,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, endpoint, "failed to retrieve run", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, details, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *TemperatureHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if _, err := h.statsService.Current(); err != nil {
		status["status"] = "starting"
		code = http.StatusServiceUnavailable
	}

	if h.historyService != nil {
		if err := h.historyService.HealthCheck(ctx); err != nil {
			h.logger.Warn(ctx, "[HEALTH_CHECK_DB] Database unreachable", logging.Fields{
				"error": err.Error(),
			})
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "ok"
		}
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// current resolves the snapshot or writes a 503
func (h *TemperatureHandler) current(w http.ResponseWriter, r *http.Request, endpoint string) (*services.Analysis, bool) {
	current, err := h.statsService.Current()
	if errors.Is(err, services.ErrNoSnapshot) {
		h.sendError(w, r, endpoint, "no analysis available yet", http.StatusServiceUnavailable)
		return nil, false
	}
	if err != nil {
		h.sendError(w, r, endpoint, "failed to load statistics", http.StatusInternalServerError)
		return nil, false
	}
	return current, true
}

func (h *TemperatureHandler) observe(endpoint string, start time.Time) {
	h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *TemperatureHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *TemperatureHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all temperature API routes
func (h *TemperatureHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/temperature/stats", h.GetMonthStats).Methods(http.MethodGet)
	router.HandleFunc("/api/temperature/stats/monthly", h.GetMonthlyStats).Methods(http.MethodGet)
	router.HandleFunc("/api/temperature/stats/yearly", h.GetYearlyStats).Methods(http.MethodGet)
	router.HandleFunc("/api/temperature/rejections", h.GetRejections).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/docs", SwaggerUI).Methods(http.MethodGet)
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods(http.MethodGet)

	if h.historyService != nil {
		router.HandleFunc("/api/runs", h.ListRuns).Methods(http.MethodGet)
		router.HandleFunc("/api/runs/{id}", h.GetRun).Methods(http.MethodGet)
	}
}
