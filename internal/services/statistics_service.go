package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"temperature-stats/internal/models"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

// ErrNoSnapshot is returned before the first successful refresh
var ErrNoSnapshot = errors.New("no analysis available yet")

// MonthEntry pairs a month with its statistics; Stats is nil without data
type MonthEntry struct {
	Month int           `json:"month"`
	Stats *models.Stats `json:"stats"`
}

// StatisticsService keeps the latest analysis of one data file and serves
// statistics from it. Refresh replaces the snapshot only on success.
type StatisticsService struct {
	analysis *AnalysisService
	dataFile string
	persist  bool
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector

	mu      sync.RWMutex
	current *Analysis
}

// NewStatisticsService creates a new statistics service for dataFile. When
// persist is set every successful refresh is also stored.
func NewStatisticsService(analysis *AnalysisService, dataFile string, persist bool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		analysis: analysis,
		dataFile: dataFile,
		persist:  persist,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Refresh re-analyzes the data file. On failure the previous snapshot is
// kept and the error returned.
func (s *StatisticsService) Refresh(ctx context.Context) error {
	result, err := s.analysis.AnalyzeFile(ctx, s.dataFile, Hooks{})
	if err != nil {
		s.metrics.RecordReload("failed")
		s.logger.Error(ctx, "[STATS_REFRESH_ERROR] Failed to refresh statistics", logging.Fields{
			"data_file": s.dataFile,
		}, err)
		return fmt.Errorf("failed to refresh statistics: %w", err)
	}

	if s.persist {
		if err := s.analysis.Persist(ctx, result); err != nil {
			// the snapshot is still served from memory
			s.logger.Error(ctx, "[STATS_PERSIST_ERROR] Failed to persist statistics", logging.Fields{
				"run_id": result.RunID,
			}, err)
		}
	}

	s.mu.Lock()
	s.current = result
	s.mu.Unlock()

	s.metrics.RecordReload("ok")
	s.logger.Info(ctx, "[STATS_REFRESH_COMPLETE] Statistics snapshot replaced", logging.Fields{
		"run_id":           result.RunID,
		"accepted_records": result.Aggregator.Count(),
		"rejected_records": len(result.Rejections),
	})

	return nil
}

// Current returns the latest snapshot
func (s *StatisticsService) Current() (*Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNoSnapshot
	}
	return s.current, nil
}

// MonthStats returns one month's statistics from the snapshot
func (s *StatisticsService) MonthStats(month int) (models.Stats, bool, error) {
	current, err := s.Current()
	if err != nil {
		return models.Stats{}, false, err
	}
	stats, ok := current.Aggregator.MonthStats(month)
	return stats, ok, nil
}

// Monthly returns twelve entries in calendar order
func (s *StatisticsService) Monthly() ([]MonthEntry, error) {
	current, err := s.Current()
	if err != nil {
		return nil, err
	}

	return current.MonthEntries(), nil
}

// MonthEntries lists months 1 to 12 in order with their statistics
func (a *Analysis) MonthEntries() []MonthEntry {
	entries := make([]MonthEntry, 0, models.MaxMonth)
	for month := models.MinMonth; month <= models.MaxMonth; month++ {
		entry := MonthEntry{Month: month}
		if stats, ok := a.Aggregator.MonthStats(month); ok {
			entry.Stats = &stats
		}
		entries = append(entries, entry)
	}
	return entries
}

// YearStats returns the whole-file statistics from the snapshot
func (s *StatisticsService) YearStats() (models.Stats, bool, error) {
	current, err := s.Current()
	if err != nil {
		return models.Stats{}, false, err
	}
	stats, ok := current.Aggregator.YearStats()
	return stats, ok, nil
}

// Rejections returns the rejected records of the snapshot
func (s *StatisticsService) Rejections() ([]*models.RecordError, error) {
	current, err := s.Current()
	if err != nil {
		return nil, err
	}
	return current.Rejections, nil
}
