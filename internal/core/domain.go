package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HandwashingYear is the year chlorine handwashing was introduced in the
// Vienna maternity clinics. Records from this year on belong to the "after" era.
const HandwashingYear = 1847

// AllClinics is the selector value meaning "do not filter by clinic".
const AllClinics = "all"

type (
	// Record is one year/clinic observation of births and deaths.
	Record struct {
		Year          int    `json:"year"`
		Clinic        string `json:"clinic"`
		Birth         int    `json:"birth"`
		Deaths        int    `json:"deaths"`
		MortalityRate Rate   `json:"mortality_rate"`
	}

	// Dataset is an immutable, loaded collection of records together with
	// the identity of the source version it was built from.
	Dataset struct {
		Records     []Record
		Source      string
		Fingerprint string
		LoadedAt    time.Time
	}
)

var (
	ErrResourceNotFound = errors.New("dataset resource not found")
	ErrSchema           = errors.New("dataset schema error")
	ErrEmptyPartition   = errors.New("empty partition")
	ErrInvalidYear      = errors.New("invalid year")
	ErrEmptyClinic      = errors.New("empty clinic")
	ErrNegativeCount    = errors.New("negative count")
)

// SchemaError reports required columns missing from the header row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) == 0 {
		return "dataset schema error: missing header row"
	}
	return fmt.Sprintf("dataset schema error: missing required column(s) %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// RowError reports a data row whose value could not be used.
// Line is 1-based and counts the header row.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("dataset schema error: line %d, column %s: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

// Unwrap exposes both ErrSchema and the underlying cause to errors.Is.
func (e *RowError) Unwrap() []error { return []error{ErrSchema, e.Err} }

// NewRecord builds a record and derives its mortality rate.
func NewRecord(year int, clinic string, birth, deaths int) (Record, error) {
	r := Record{
		Year:   year,
		Clinic: strings.TrimSpace(clinic),
		Birth:  birth,
		Deaths: deaths,
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	r.MortalityRate = MortalityRate(birth, deaths)
	return r, nil
}

// Validate checks the raw observation fields. The derived rate is not checked.
func (r Record) Validate() error {
	if r.Year <= 0 {
		return ErrInvalidYear
	}
	if r.Clinic == "" {
		return ErrEmptyClinic
	}
	if r.Birth < 0 || r.Deaths < 0 {
		return ErrNegativeCount
	}
	return nil
}

// Before reports whether the record falls strictly before the threshold year.
func (r Record) Before(threshold int) bool {
	return r.Year < threshold
}
