// Package report renders temperature statistics and rejected-record
// diagnostics as line-oriented text.
package report

import (
	"fmt"
	"io"
	"strings"

	"temperature-stats/internal/models"
)

// StatsSource is the read side of the aggregator
type StatsSource interface {
	MonthStats(month int) (models.Stats, bool)
	YearStats() (models.Stats, bool)
	Empty() bool
}

// Renderer writes the report to w. The first write error is kept and
// returned by Err; later writes are skipped.
type Renderer struct {
	w   io.Writer
	err error
}

// NewRenderer creates a renderer writing to w
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Err returns the first write error, if any
func (r *Renderer) Err() error {
	return r.err
}

func (r *Renderer) printf(format string, args ...interface{}) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) banner(title string) {
	rule := strings.Repeat("-", len(title)+8)
	r.printf("\n%s\n--- %s ---\n%s\n", rule, title, rule)
}

// Header announces the file being analyzed
func (r *Renderer) Header(path string) {
	r.printf("\nAnalyzing file: %s\n\n", path)
}

// Rejection prints the diagnostic for one rejected record
func (r *Renderer) Rejection(e *models.RecordError) {
	switch e.Kind {
	case models.StructuralError:
		r.printf(" [Format error] Line %d: wrong number of columns (%d instead of %d). Line skipped.\n",
			e.LineNumber, len(e.Fields), models.FieldCount)
	case models.ConversionError:
		r.printf(" [Format error] Line %d: could not convert values to numbers. Line skipped.\n", e.LineNumber)
	case models.MonthRangeError:
		r.printf(" [Data error] Line %d: invalid month (%d). Line skipped.\n", e.LineNumber, e.Value)
	case models.TemperatureRangeError:
		r.printf(" [Data error] Line %d: temperature (%d) outside range [%d, %d]. Line skipped.\n",
			e.LineNumber, e.Value, models.MinTemperature, models.MaxTemperature)
	default:
		r.printf(" [Error] %v. Line skipped.\n", e)
	}
	r.printf(" > Contents: %s\n", e.Contents())
}

// NoData prints the message for a file without a single valid observation
func (r *Renderer) NoData() {
	r.printf("\nNo valid temperature data found in the file.\n")
}

// Report renders the single-month view when target is set and the full-year
// view otherwise. An empty source only gets the NoData message.
func (r *Renderer) Report(src StatsSource, target *int) error {
	switch {
	case src.Empty():
		r.NoData()
	case target != nil:
		r.Month(src, *target)
	default:
		r.Year(src)
	}
	return r.err
}

// Month renders the statistics of a single month
func (r *Renderer) Month(src StatsSource, month int) {
	r.banner(fmt.Sprintf("Statistics for month: %02d", month))

	stats, ok := src.MonthStats(month)
	if !ok {
		r.printf(" No data for this month.\n")
		return
	}
	r.stats("Monthly average temperature", stats)
}

// Year renders months 01 to 12 in order followed by the yearly summary
func (r *Renderer) Year(src StatsSource) {
	r.banner("Statistics by month")

	for month := models.MinMonth; month <= models.MaxMonth; month++ {
		r.printf("\nMonth: %02d\n", month)
		stats, ok := src.MonthStats(month)
		if !ok {
			r.printf(" No data.\n")
			continue
		}
		r.stats("Monthly average temperature", stats)
	}

	yearly, ok := src.YearStats()
	if !ok {
		return
	}
	r.banner("Statistics for the year")
	r.printf("\n")
	r.stats("Yearly average temperature", yearly)
}

func (r *Renderer) stats(averageLabel string, s models.Stats) {
	r.printf(" %s: %.2f°C\n", averageLabel, s.Average)
	r.printf(" Minimum temperature: %d°C\n", s.Minimum)
	r.printf(" Maximum temperature: %d°C\n", s.Maximum)
}
