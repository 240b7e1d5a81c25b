package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"temperature-stats/internal/config"
	"temperature-stats/internal/models"
	"temperature-stats/internal/report"
	"temperature-stats/internal/repository"
	"temperature-stats/internal/services"
	"temperature-stats/pkg/database"
	"temperature-stats/pkg/logging"
	"temperature-stats/pkg/metrics"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// monthFlag is an optional month; nil until set
type monthFlag struct {
	value *int
}

func (m *monthFlag) String() string {
	if m == nil || m.value == nil {
		return ""
	}
	return strconv.Itoa(*m.value)
}

func (m *monthFlag) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || !models.ValidMonth(n) {
		return fmt.Errorf("month must be an integer between %d and %d", models.MinMonth, models.MaxMonth)
	}
	m.value = &n
	return nil
}

type options struct {
	file        string
	month       monthFlag
	persist     bool
	verbose     bool
	metricsFile string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.file, "file", "", "Path to the semicolon-delimited temperature file (required)")
	fs.StringVar(&opts.file, "f", "", "Shorthand for --file")
	fs.Var(&opts.month, "month", "Month to report on (1-12); whole year when omitted")
	fs.Var(&opts.month, "m", "Shorthand for --month")
	fs.BoolVar(&opts.persist, "persist", false, "Store the computed statistics in PostgreSQL")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log at LOG_LEVEL instead of warn")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics of this run to the given file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.file == "" {
		fmt.Fprintln(stderr, "the --file/-f flag is required")
		fs.Usage()
		return nil, errors.New("missing --file")
	}
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitError
	}

	logLevel := logging.WarnLevel
	if cfg != nil && opts.verbose {
		logLevel = logging.ParseLevel(cfg.Logging.Level)
	}
	logger := logging.NewStructuredLogger("temperature-analyzer", "1.0.0", logLevel)
	logger.SetOutput(stderr)

	registry := prometheus.NewRegistry()
	metricsCollector := metrics.NewCollector("temperature_analyzer", registry)

	ctx := context.Background()
	logger.Debug(ctx, "[ANALYZER_START] Starting temperature analysis", logging.Fields{
		"file":    opts.file,
		"month":   opts.month.String(),
		"persist": opts.persist,
	})

	var repo repository.StatisticsRepository
	if opts.persist {
		db, err := database.NewPostgresDB(ctx, databaseConfig(cfg), logger, metricsCollector)
		if err != nil {
			logger.Error(ctx, "[ANALYZER_DB_ERROR] Failed to connect to database", logging.Fields{}, err)
			fmt.Fprintf(stdout, "ERROR: could not connect to database: %v\n", err)
			return exitError
		}
		defer db.Close()
		repo = repository.NewStatisticsRepository(db, logger, metricsCollector)
	}

	analysisService := services.NewAnalysisService(repo, logger, metricsCollector)
	renderer := report.NewRenderer(stdout)

	result, err := analysisService.AnalyzeFile(ctx, opts.file, services.Hooks{
		OnOpen:   renderer.Header,
		OnReject: renderer.Rejection,
	})
	switch {
	case errors.Is(err, services.ErrFileNotFound):
		fmt.Fprintf(stdout, "ERROR: file not found at path: %s\n", opts.file)
		return exitError
	case err != nil:
		fmt.Fprintf(stdout, "ERROR: unexpected error: %v\n", err)
		return exitError
	}

	if err := renderer.Report(result.Aggregator, opts.month.value); err != nil {
		logger.Error(ctx, "[ANALYZER_OUTPUT_ERROR] Failed to write report", logging.Fields{}, err)
		return exitError
	}

	if opts.persist {
		if err := analysisService.Persist(ctx, result); err != nil {
			logger.Error(ctx, "[ANALYZER_PERSIST_ERROR] Failed to persist statistics", logging.Fields{
				"run_id": result.RunID,
			}, err)
			fmt.Fprintf(stdout, "ERROR: unexpected error: %v\n", err)
			return exitError
		}
	}

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile, registry); err != nil {
			logger.Warn(ctx, "[ANALYZER_METRICS_ERROR] Failed to write metrics file", logging.Fields{
				"path":  opts.metricsFile,
				"error": err.Error(),
			})
		}
	}

	logger.Info(ctx, "[ANALYZER_COMPLETE] Analysis completed", logging.Fields{
		"run_id":           result.RunID,
		"total_records":    result.TotalRecords,
		"accepted_records": result.Aggregator.Count(),
		"rejected_records": len(result.Rejections),
		"duration_ms":      result.Duration.Milliseconds(),
	})

	return exitOK
}

// loadConfig reads the environment only when a flag needs it and validates
// only the sections in use; a plain analysis runs without any configuration.
func loadConfig(opts *options) (*config.Config, error) {
	if !opts.verbose && !opts.persist {
		return nil, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	var sections []interface{}
	if opts.verbose {
		sections = append(sections, cfg.Logging)
	}
	if opts.persist {
		sections = append(sections, cfg.Database)
	}
	if err := cfg.ValidateSections(sections...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func databaseConfig(cfg *config.Config) *database.Config {
	return &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
}
