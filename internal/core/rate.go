// Package core holds the dataset domain: records, the derived mortality
// rate, and the filters and aggregations the dashboard is built from.
//
// Everything in this package is pure. Callers own loading and caching and
// pass immutable record slices in; functions never mutate their input.
package core

import (
	"math"
	"strconv"
)

// Rate is a percentage that may be undefined.
//
// The mortality rate of a record with zero births is undefined: the record
// stays in the dataset but is skipped by averages and by the mortality chart.
type Rate struct {
	Value float64
	Valid bool
}

// MortalityRate returns deaths per hundred births.
//
// Examples:
//
//	MortalityRate(100, 10) -> {10, true}
//	MortalityRate(3036, 237) -> {7.806..., true}
//	MortalityRate(0, 3) -> {0, false}
func MortalityRate(birth, deaths int) Rate {
	if birth <= 0 {
		return Rate{}
	}
	v := float64(deaths) / float64(birth) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Rate{}
	}
	return Rate{Value: v, Valid: true}
}

// Percent formats the rate with two decimals, e.g. "7.81%".
// An undefined rate renders as "n/a".
func (r Rate) Percent() string {
	if !r.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64) + "%"
}

// MarshalJSON encodes an undefined rate as null.
func (r Rate) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, r.Value, 'f', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (r *Rate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*r = Rate{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*r = Rate{Value: v, Valid: true}
	return nil
}
