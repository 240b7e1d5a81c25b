package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Input schema: six ';'-separated fields, month at index 1 and temperature
// at index 5. The remaining fields are date/time context and are ignored.
const (
	FieldCount       = 6
	MonthField       = 1
	TemperatureField = 5

	MinMonth       = 1
	MaxMonth       = 12
	MinTemperature = -99
	MaxTemperature = 99
)

// RawRecord is one input line split into fields
type RawRecord struct {
	LineNumber int
	Fields     []string
}

// Observation is a validated (month, temperature) pair
type Observation struct {
	Month       int `json:"month"`
	Temperature int `json:"temperature"`
}

// RecordErrorKind classifies why a record was rejected
type RecordErrorKind int

const (
	StructuralError RecordErrorKind = iota + 1
	ConversionError
	MonthRangeError
	TemperatureRangeError
)

// String returns the metric/log label of the kind
func (k RecordErrorKind) String() string {
	switch k {
	case StructuralError:
		return "structural"
	case ConversionError:
		return "conversion"
	case MonthRangeError:
		return "month_range"
	case TemperatureRangeError:
		return "temperature_range"
	default:
		return "unknown"
	}
}

// RecordError describes a rejected input record. Value holds the offending
// month or temperature for the range kinds.
type RecordError struct {
	Kind       RecordErrorKind `json:"kind"`
	LineNumber int             `json:"line"`
	Fields     []string        `json:"fields"`
	Value      int             `json:"value"`
}

func (e *RecordError) Error() string {
	switch e.Kind {
	case StructuralError:
		return fmt.Sprintf("line %d: wrong number of columns (%d instead of %d)", e.LineNumber, len(e.Fields), FieldCount)
	case ConversionError:
		return fmt.Sprintf("line %d: month or temperature is not an integer", e.LineNumber)
	case MonthRangeError:
		return fmt.Sprintf("line %d: invalid month (%d)", e.LineNumber, e.Value)
	case TemperatureRangeError:
		return fmt.Sprintf("line %d: temperature (%d) outside range [%d, %d]", e.LineNumber, e.Value, MinTemperature, MaxTemperature)
	default:
		return fmt.Sprintf("line %d: rejected", e.LineNumber)
	}
}

// IsTransient returns false as a malformed record never becomes valid
func (e *RecordError) IsTransient() bool {
	return false
}

// Contents renders the raw fields the way diagnostics print them
func (e *RecordError) Contents() string {
	return strings.Join(e.Fields, " | ")
}

// ParseResult is either an accepted Observation (Err == nil) or a rejection
type ParseResult struct {
	Observation Observation
	Err         *RecordError
}

// Accepted reports whether the record produced an Observation
func (r ParseResult) Accepted() bool {
	return r.Err == nil
}

// ParseRecord classifies one record. The checks run in a fixed order:
// column count, integer conversion of both values, month range, then
// temperature range.
func ParseRecord(lineNumber int, fields []string) ParseResult {
	return RawRecord{LineNumber: lineNumber, Fields: fields}.Parse()
}

// Parse classifies the record, see ParseRecord
func (r RawRecord) Parse() ParseResult {
	reject := func(kind RecordErrorKind, value int) ParseResult {
		return ParseResult{Err: &RecordError{
			Kind:       kind,
			LineNumber: r.LineNumber,
			Fields:     r.Fields,
			Value:      value,
		}}
	}

	if len(r.Fields) != FieldCount {
		return reject(StructuralError, 0)
	}

	month, err := strconv.Atoi(strings.TrimSpace(r.Fields[MonthField]))
	if err != nil {
		return reject(ConversionError, 0)
	}

	temperature, err := strconv.Atoi(strings.TrimSpace(r.Fields[TemperatureField]))
	if err != nil {
		return reject(ConversionError, 0)
	}

	if month < MinMonth || month > MaxMonth {
		return reject(MonthRangeError, month)
	}

	if temperature < MinTemperature || temperature > MaxTemperature {
		return reject(TemperatureRangeError, temperature)
	}

	return ParseResult{Observation: Observation{Month: month, Temperature: temperature}}
}

// ValidMonth reports whether m is a calendar month number
func ValidMonth(m int) bool {
	return m >= MinMonth && m <= MaxMonth
}
