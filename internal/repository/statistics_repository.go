package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"temperature-stats/internal/models"
	"temperature-stats/pkg/database"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

// StatisticsRepository persists analysis runs and their statistics
type StatisticsRepository interface {
	// SaveRun stores a run with its monthly rows and optional yearly row
	// in one transaction
	SaveRun(ctx context.Context, run *models.AnalysisRun, monthly []*models.MonthlyStatistics, yearly *models.YearlyStatistics) error

	GetRun(ctx context.Context, runID string) (*models.AnalysisRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.AnalysisRun, error)
	GetMonthlyStatistics(ctx context.Context, runID string) ([]*models.MonthlyStatistics, error)
	GetYearlyStatistics(ctx context.Context, runID string) (*models.YearlyStatistics, error)

	HealthCheck(ctx context.Context) error
}

// statisticsRepository implements StatisticsRepository on PostgreSQL
type statisticsRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsRepository creates a new PostgreSQL statistics repository
func NewStatisticsRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) StatisticsRepository {
	return &statisticsRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const (
	insertRunQuery = `
		INSERT INTO analysis_runs (
			run_id, source, total_records, accepted_records, rejected_records, created_at
		)
		VALUES (:run_id, :source, :total_records, :accepted_records, :rejected_records, :created_at)
	`

	upsertMonthlyQuery = `
		INSERT INTO monthly_temperature_statistics (
			run_id, month,
			avg_temperature_celsius, min_temperature_celsius, max_temperature_celsius,
			observation_count, created_at
		)
		VALUES (
			:run_id, :month,
			:avg_temperature_celsius, :min_temperature_celsius, :max_temperature_celsius,
			:observation_count, :created_at
		)
		ON CONFLICT (run_id, month) DO UPDATE SET
			avg_temperature_celsius = EXCLUDED.avg_temperature_celsius,
			min_temperature_celsius = EXCLUDED.min_temperature_celsius,
			max_temperature_celsius = EXCLUDED.max_temperature_celsius,
			observation_count = EXCLUDED.observation_count
	`

	upsertYearlyQuery = `
		INSERT INTO yearly_temperature_statistics (
			run_id,
			avg_temperature_celsius, min_temperature_celsius, max_temperature_celsius,
			observation_count, created_at
		)
		VALUES (
			:run_id,
			:avg_temperature_celsius, :min_temperature_celsius, :max_temperature_celsius,
			:observation_count, :created_at
		)
		ON CONFLICT (run_id) DO UPDATE SET
			avg_temperature_celsius = EXCLUDED.avg_temperature_celsius,
			min_temperature_celsius = EXCLUDED.min_temperature_celsius,
			max_temperature_celsius = EXCLUDED.max_temperature_celsius,
			observation_count = EXCLUDED.observation_count
	`
)

// SaveRun stores the run and its statistics atomically
func (r *statisticsRepository) SaveRun(ctx context.Context, run *models.AnalysisRun, monthly []*models.MonthlyStatistics, yearly *models.YearlyStatistics) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.DBQueryDuration.WithLabelValues("save_run").Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_SAVE_RUN] Run saved", logging.Fields{
			"run_id":      run.RunID,
			"months":      len(monthly),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertRunQuery, run); err != nil {
		r.metrics.RecordDBError("insert_run_error")
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, m := range monthly {
		if _, err := tx.NamedExecContext(ctx, upsertMonthlyQuery, m); err != nil {
			r.metrics.RecordDBError("upsert_monthly_error")
			return fmt.Errorf("failed to upsert statistics for month %02d: %w", m.Month, err)
		}
	}

	if yearly != nil {
		if _, err := tx.NamedExecContext(ctx, upsertYearlyQuery, yearly); err != nil {
			r.metrics.RecordDBError("upsert_yearly_error")
			return fmt.Errorf("failed to upsert yearly statistics: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (r *statisticsRepository) GetRun(ctx context.Context, runID string) (*models.AnalysisRun, error) {
	query := `
		SELECT run_id, source, total_records, accepted_records, rejected_records, created_at
		FROM analysis_runs
		WHERE run_id = $1
	`

	var run models.AnalysisRun
	err := r.db.GetContext(ctx, "get_run", &run, query, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "analysis_run", ID: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return &run, nil
}

// ListRuns retrieves runs, newest first
func (r *statisticsRepository) ListRuns(ctx context.Context, limit, offset int) ([]*models.AnalysisRun, error) {
	query := `
		SELECT run_id, source, total_records, accepted_records, rejected_records, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, run_id
		LIMIT $1 OFFSET $2
	`

	var runs []*models.AnalysisRun
	if err := r.db.SelectContext(ctx, "list_runs", &runs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// GetMonthlyStatistics retrieves the monthly rows of a run ordered by month
func (r *statisticsRepository) GetMonthlyStatistics(ctx context.Context, runID string) ([]*models.MonthlyStatistics, error) {
	query := `
		SELECT run_id, month,
		       avg_temperature_celsius, min_temperature_celsius, max_temperature_celsius,
		       observation_count, created_at
		FROM monthly_temperature_statistics
		WHERE run_id = $1
		ORDER BY month
	`

	var rows []*models.MonthlyStatistics
	if err := r.db.SelectContext(ctx, "get_monthly_statistics", &rows, query, runID); err != nil {
		return nil, fmt.Errorf("failed to get monthly statistics: %w", err)
	}

	return rows, nil
}

// GetYearlyStatistics retrieves the yearly row of a run
func (r *statisticsRepository) GetYearlyStatistics(ctx context.Context, runID string) (*models.YearlyStatistics, error) {
	query := `
		SELECT run_id,
		       avg_temperature_celsius, min_temperature_celsius, max_temperature_celsius,
		       observation_count, created_at
		FROM yearly_temperature_statistics
		WHERE run_id = $1
	`

	var row models.YearlyStatistics
	err := r.db.GetContext(ctx, "get_yearly_statistics", &row, query, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "yearly_temperature_statistics", ID: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get yearly statistics: %w", err)
	}

	return &row, nil
}

// HealthCheck performs a repository health check
func (r *statisticsRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsTransient returns false as a missing row does not appear on retry
func (e *NotFoundError) IsTransient() bool {
	return false
}

// IsNotFound reports whether err wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
