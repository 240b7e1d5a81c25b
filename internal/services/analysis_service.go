package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"

	"temperature-stats/internal/models"
	"temperature-stats/internal/repository"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

// ErrFileNotFound is returned by AnalyzeFile when the input does not exist
var ErrFileNotFound = errors.New("file not found")

// ErrPersistenceDisabled is returned by Persist without a repository
var ErrPersistenceDisabled = errors.New("statistics persistence is not configured")

// Delimiter separates the fields of an input record
const Delimiter = ';'

// Hooks observe the read phase. Both are optional. OnReject is called
// synchronously for each rejected record, in input order.
type Hooks struct {
	OnOpen   func(source string)
	OnReject func(err *models.RecordError)
}

// Analysis is the outcome of one pass over an input
type Analysis struct {
	RunID        string
	Source       string
	Aggregator   *Aggregator
	Rejections   []*models.RecordError
	TotalRecords int
	Duration     time.Duration
	CreatedAt    time.Time
}

// Run summarises the analysis for persistence and the API
func (a *Analysis) Run() *models.AnalysisRun {
	return &models.AnalysisRun{
		RunID:           a.RunID,
		Source:          a.Source,
		TotalRecords:    a.TotalRecords,
		AcceptedRecords: a.Aggregator.Count(),
		RejectedRecords: len(a.Rejections),
		CreatedAt:       a.CreatedAt,
	}
}

// AnalysisService reads observation files and aggregates temperatures
type AnalysisService struct {
	repo    repository.StatisticsRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAnalysisService creates a new analysis service. repo may be nil when
// persistence is not wanted.
func NewAnalysisService(repo repository.StatisticsRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// AnalyzeFile opens path and analyzes its contents. The file is closed on
// every return path.
func (s *AnalysisService) AnalyzeFile(ctx context.Context, path string, hooks Hooks) (*Analysis, error) {
	file, err := os.Open(path)
	if err != nil {
		s.metrics.RecordAnalysisRun("failed")
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.Analyze(ctx, path, file, hooks)
}

// Analyze reads ';'-separated records from r. Malformed records are
// reported through hooks.OnReject and skipped; read errors abort the run.
func (s *AnalysisService) Analyze(ctx context.Context, source string, r io.Reader, hooks Hooks) (*Analysis, error) {
	timer := s.metrics.NewTimer(s.metrics.AnalysisDuration)

	analysis := &Analysis{
		RunID:      uuid.NewString(),
		Source:     source,
		Aggregator: NewAggregator(),
		CreatedAt:  time.Now().UTC(),
	}
	ctx = logging.WithRunID(ctx, analysis.RunID)
	log := s.logger.WithFields(logging.Fields{"source": source})

	log.Info(ctx, "[ANALYSIS_START] Starting temperature analysis", logging.Fields{
		"stage": "READING",
	})

	if hooks.OnOpen != nil {
		hooks.OnOpen(source)
	}

	index := newLineIndex(r)
	reader := csv.NewReader(index)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	process := func(line int, fields []string) {
		analysis.TotalRecords++
		s.metrics.RecordsProcessedTotal.Inc()

		result := models.ParseRecord(line, fields)
		if !result.Accepted() {
			analysis.Rejections = append(analysis.Rejections, result.Err)
			s.metrics.RecordRecordError(result.Err.Kind.String())
			log.Debug(ctx, "[RECORD_REJECTED] Record skipped", logging.Fields{
				"line":       line,
				"error_type": result.Err.Kind.String(),
				"reason":     result.Err.Error(),
			})
			if hooks.OnReject != nil {
				hooks.OnReject(result.Err)
			}
			return
		}

		analysis.Aggregator.Accept(result.Observation)
		s.metrics.RecordObservation(fmt.Sprintf("%02d", result.Observation.Month))
	}

	// csv.Reader drops blank lines; they are records with zero fields
	blankUntil := func(next, end int) {
		for line := next; line <= end; line++ {
			process(line, []string{})
		}
	}

	next := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			blankUntil(next, index.lines())
			break
		}
		if err != nil {
			s.metrics.RecordAnalysisRun("failed")
			log.Error(ctx, "[ANALYSIS_READ_ERROR] Failed to read input", logging.Fields{
				"records_read": analysis.TotalRecords,
			}, err)
			return nil, fmt.Errorf("error reading %s: %w", source, err)
		}

		line, _ := reader.FieldPos(0)
		blankUntil(next, line-1)
		process(line, fields)
		next = index.lineAt(reader.InputOffset())
	}

	analysis.Duration = timer.ObserveDuration()

	outcome := "ok"
	if analysis.Aggregator.Empty() {
		outcome = "empty"
	}
	s.metrics.RecordAnalysisRun(outcome)

	log.Info(ctx, "[ANALYSIS_COMPLETE] Temperature analysis completed", logging.Fields{
		"total_records":    analysis.TotalRecords,
		"accepted_records": analysis.Aggregator.Count(),
		"rejected_records": len(analysis.Rejections),
		"months_with_data": len(analysis.Aggregator.Months()),
		"duration_ms":      analysis.Duration.Milliseconds(),
		"outcome":          outcome,
		"stage":            "COMPLETE",
	})

	return analysis, nil
}

// Persist stores the run, every month holding data and the yearly summary
func (s *AnalysisService) Persist(ctx context.Context, analysis *Analysis) error {
	if s.repo == nil {
		return ErrPersistenceDisabled
	}
	ctx = logging.WithRunID(ctx, analysis.RunID)

	now := time.Now().UTC()
	var monthly []*models.MonthlyStatistics
	for _, month := range analysis.Aggregator.Months() {
		stats, _ := analysis.Aggregator.MonthStats(month)
		monthly = append(monthly, &models.MonthlyStatistics{
			RunID:     analysis.RunID,
			Month:     month,
			Stats:     stats,
			CreatedAt: now,
		})
	}

	var yearly *models.YearlyStatistics
	if stats, ok := analysis.Aggregator.YearStats(); ok {
		yearly = &models.YearlyStatistics{
			RunID:     analysis.RunID,
			Stats:     stats,
			CreatedAt: now,
		}
	}

	if err := s.repo.SaveRun(ctx, analysis.Run(), monthly, yearly); err != nil {
		return fmt.Errorf("failed to persist analysis: %w", err)
	}

	s.logger.Info(ctx, "[ANALYSIS_PERSISTED] Statistics stored", logging.Fields{
		"months": len(monthly),
		"yearly": yearly != nil,
	})

	return nil
}
