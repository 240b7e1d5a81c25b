package services

import (
	"temperature-stats/internal/models"
)

// Aggregator groups accepted temperatures by month. Buckets are indexed by
// month-1, so a month with no observations is simply an empty slot.
type Aggregator struct {
	buckets [models.MaxMonth][]int
	count   int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Accept appends the observation's temperature to its month's bucket.
// Observations come from models.ParseRecord and are already range checked.
func (a *Aggregator) Accept(obs models.Observation) {
	a.buckets[obs.Month-1] = append(a.buckets[obs.Month-1], obs.Temperature)
	a.count++
}

// MonthStats returns the statistics of one month. ok is false when the
// month is out of range or has no observations.
func (a *Aggregator) MonthStats(month int) (models.Stats, bool) {
	if !models.ValidMonth(month) {
		return models.Stats{}, false
	}
	return computeStats(a.buckets[month-1])
}

// YearStats returns the statistics over every accepted observation. The
// average is weighted by observation count, not a mean of monthly means.
func (a *Aggregator) YearStats() (models.Stats, bool) {
	all := make([]int, 0, a.count)
	for _, bucket := range a.buckets {
		all = append(all, bucket...)
	}
	return computeStats(all)
}

// Empty reports whether no observation was accepted
func (a *Aggregator) Empty() bool {
	return a.count == 0
}

// Count returns the number of accepted observations
func (a *Aggregator) Count() int {
	return a.count
}

// Months lists the months holding data, ascending
func (a *Aggregator) Months() []int {
	var months []int
	for i, bucket := range a.buckets {
		if len(bucket) > 0 {
			months = append(months, i+1)
		}
	}
	return months
}

func computeStats(values []int) (models.Stats, bool) {
	if len(values) == 0 {
		return models.Stats{}, false
	}

	sum := 0
	minimum, maximum := values[0], values[0]
	for _, v := range values {
		sum += v
		minimum = min(minimum, v)
		maximum = max(maximum, v)
	}

	return models.Stats{
		Average: float64(sum) / float64(len(values)),
		Minimum: minimum,
		Maximum: maximum,
		Count:   len(values),
	}, true
}
