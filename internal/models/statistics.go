package models

import (
	"time"
)

// Stats is the min/max/mean view over a set of temperatures. It is derived
// on demand and never stored by the aggregator.
type Stats struct {
	Average float64 `json:"average" db:"avg_temperature_celsius"`
	Minimum int     `json:"minimum" db:"min_temperature_celsius"`
	Maximum int     `json:"maximum" db:"max_temperature_celsius"`
	Count   int     `json:"observation_count" db:"observation_count"`
}

// AnalysisRun records one pass over an input file
type AnalysisRun struct {
	RunID           string    `json:"run_id" db:"run_id"`
	Source          string    `json:"source" db:"source"`
	TotalRecords    int       `json:"total_records" db:"total_records"`
	AcceptedRecords int       `json:"accepted_records" db:"accepted_records"`
	RejectedRecords int       `json:"rejected_records" db:"rejected_records"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// MonthlyStatistics is the persisted form of one month's Stats
type MonthlyStatistics struct {
	RunID     string    `json:"run_id" db:"run_id"`
	Month     int       `json:"month" db:"month"`
	Stats
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// YearlyStatistics is the persisted form of the whole-file Stats
type YearlyStatistics struct {
	RunID     string    `json:"run_id" db:"run_id"`
	Stats
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
