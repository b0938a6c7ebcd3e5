package http

import (
	"errors"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"semmelweis/internal/core"
)

// MaxSelectorLength bounds the clinic query parameter, in runes.
const MaxSelectorLength = 100

var (
	ErrSelectorTooLong      = errors.New("clinic selector is too long")
	ErrSelectorInvalidChars = errors.New("clinic selector contains invalid characters")
)

// ParseClinicSelector reads the "clinic" query parameter. A missing or blank
// value, and any casing of "all", select every clinic. Other values are
// returned trimmed; they need not name an existing clinic.
func ParseClinicSelector(query url.Values) (string, error) {
	raw := query.Get("clinic")
	if !utf8.ValidString(raw) {
		return "", ErrSelectorInvalidChars
	}
	if utf8.RuneCountInString(raw) > MaxSelectorLength {
		return "", ErrSelectorTooLong
	}
	if strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return "", ErrSelectorInvalidChars
	}
	sel := strings.TrimSpace(raw)
	if core.IsAllClinics(sel) {
		return core.AllClinics, nil
	}
	return sel, nil
}

// ParseChartFile maps a "{kind}.svg" path segment to a metric.
func ParseChartFile(file string) (core.Metric, bool) {
	kind, ok := strings.CutSuffix(file, ".svg")
	if !ok {
		return "", false
	}
	return core.ParseMetric(kind)
}
