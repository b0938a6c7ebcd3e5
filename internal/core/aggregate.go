package core

import (
	"sort"
	"strings"
)

// IsAllClinics reports whether selector means "no clinic filter".
// An empty selector is treated the same as AllClinics.
func IsAllClinics(selector string) bool {
	s := strings.TrimSpace(selector)
	return s == "" || strings.EqualFold(s, AllClinics)
}

// FilterByClinic returns the records of one clinic, or a copy of all records
// for the AllClinics selector. Input order is preserved.
func FilterByClinic(records []Record, selector string) []Record {
	if IsAllClinics(selector) {
		out := make([]Record, len(records))
		copy(out, records)
		return out
	}
	clinic := strings.TrimSpace(selector)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Clinic == clinic {
			out = append(out, r)
		}
	}
	return out
}

// Clinics returns the sorted distinct clinic names.
func Clinics(records []Record) []string {
	seen := make(map[string]struct{}, 4)
	out := make([]string, 0, 4)
	for _, r := range records {
		if _, ok := seen[r.Clinic]; ok {
			continue
		}
		seen[r.Clinic] = struct{}{}
		out = append(out, r.Clinic)
	}
	sort.Strings(out)
	return out
}

// HasClinic reports whether any record belongs to clinic.
func HasClinic(records []Record, clinic string) bool {
	for _, r := range records {
		if r.Clinic == clinic {
			return true
		}
	}
	return false
}

// SplitEra partitions records at threshold: Year < threshold goes to before,
// everything else to after. Both results preserve input order.
func SplitEra(records []Record, threshold int) (before, after []Record) {
	before = make([]Record, 0, len(records))
	after = make([]Record, 0, len(records))
	for _, r := range records {
		if r.Before(threshold) {
			before = append(before, r)
		} else {
			after = append(after, r)
		}
	}
	return before, after
}

// MeanMortality is the arithmetic mean of the defined mortality rates.
// It returns ErrEmptyPartition when no record has a defined rate.
func MeanMortality(records []Record) (float64, int, error) {
	var sum float64
	n := 0
	for _, r := range records {
		if !r.MortalityRate.Valid {
			continue
		}
		sum += r.MortalityRate.Value
		n++
	}
	if n == 0 {
		return 0, 0, ErrEmptyPartition
	}
	return sum / float64(n), n, nil
}
