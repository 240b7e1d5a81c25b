package services

import (
	"context"

	"temperature-stats/internal/models"
	"temperature-stats/internal/repository"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

// RunDetails is a persisted run with its statistics
type RunDetails struct {
	Run     *models.AnalysisRun         `json:"run"`
	Monthly []*models.MonthlyStatistics `json:"monthly"`
	Yearly  *models.YearlyStatistics    `json:"yearly,omitempty"`
}

// HistoryService reads previously persisted analysis runs
type HistoryService struct {
	repo    repository.StatisticsRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewHistoryService creates a new history service
func NewHistoryService(repo repository.StatisticsRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *HistoryService {
	return &HistoryService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ListRuns retrieves persisted runs, newest first
func (s *HistoryService) ListRuns(ctx context.Context, limit, offset int) ([]*models.AnalysisRun, error) {
	return s.repo.ListRuns(ctx, limit, offset)
}

// GetRun retrieves one run with its monthly and yearly rows. A run without
// accepted observations has no yearly row.
func (s *HistoryService) GetRun(ctx context.Context, runID string) (*RunDetails, error) {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	monthly, err := s.repo.GetMonthlyStatistics(ctx, runID)
	if err != nil {
		return nil, err
	}

	yearly, err := s.repo.GetYearlyStatistics(ctx, runID)
	if repository.IsNotFound(err) {
		s.logger.Debug(logging.WithRunID(ctx, runID), "[HISTORY_NO_YEARLY] Run has no yearly statistics", logging.Fields{})
		yearly = nil
	} else if err != nil {
		return nil, err
	}

	return &RunDetails{Run: run, Monthly: monthly, Yearly: yearly}, nil
}

// HealthCheck reports whether the backing store is reachable
func (s *HistoryService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
