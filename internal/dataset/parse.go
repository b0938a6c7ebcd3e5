// Package dataset turns tabular input into validated core records.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"semmelweis/internal/core"
)

// Required column names, matched case-insensitively.
const (
	ColYear   = "Year"
	ColClinic = "Clinic"
	ColBirth  = "Birth"
	ColDeaths = "Deaths"
)

var requiredColumns = []string{ColYear, ColBirth, ColDeaths, ColClinic}

const utf8BOM = "\ufeff"

// Parse reads a CSV stream with a header row and returns its records.
func Parse(r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &core.SchemaError{}
	}
	if err != nil {
		return nil, readError("read header", err)
	}
	cols, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var out []core.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError("read csv", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(row) {
			continue
		}
		rec, err := cols.record(row, line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseRows is Parse for an already split table, such as a Sheets values
// range. The first non-empty row is the header.
func ParseRows(rows [][]string) ([]core.Record, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, &core.SchemaError{}
	}
	cols, err := headerIndex(rows[start])
	if err != nil {
		return nil, err
	}

	out := make([]core.Record, 0, len(rows)-start-1)
	for i := start + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		rec, err := cols.record(rows[i], i+1)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// readError marks CSV syntax errors, such as an unbalanced quote, as schema
// errors. Other read failures pass through.
func readError(op string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%s: %w: %w", op, core.ErrSchema, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type columns struct {
	year, clinic, birth, deaths int
}

func headerIndex(header []string) (columns, error) {
	names := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		names[i] = strings.TrimSpace(h)
	}

	idx := map[string]int{}
	var missing []string
	for _, want := range requiredColumns {
		i := indexOf(names, want)
		if i == -1 {
			missing = append(missing, want)
			continue
		}
		idx[want] = i
	}
	if len(missing) > 0 {
		return columns{}, &core.SchemaError{Missing: missing}
	}
	return columns{
		year:   idx[ColYear],
		clinic: idx[ColClinic],
		birth:  idx[ColBirth],
		deaths: idx[ColDeaths],
	}, nil
}

func (c columns) record(row []string, line int) (core.Record, error) {
	year, err := parseCount(row, c.year, ColYear, line)
	if err != nil {
		return core.Record{}, err
	}
	birth, err := parseCount(row, c.birth, ColBirth, line)
	if err != nil {
		return core.Record{}, err
	}
	deaths, err := parseCount(row, c.deaths, ColDeaths, line)
	if err != nil {
		return core.Record{}, err
	}
	clinic := safeGet(row, c.clinic)
	rec, err := core.NewRecord(year, clinic, birth, deaths)
	if err != nil {
		if errors.Is(err, core.ErrEmptyClinic) {
			return core.Record{}, &core.RowError{Line: line, Column: ColClinic, Value: clinic, Err: err}
		}
		return core.Record{}, &core.RowError{Line: line, Column: ColYear, Value: strconv.Itoa(year), Err: err}
	}
	return rec, nil
}

func parseCount(row []string, idx int, col string, line int) (int, error) {
	raw := safeGet(row, idx)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.RowError{Line: line, Column: col, Value: raw, Err: err}
	}
	if n < 0 {
		return 0, &core.RowError{Line: line, Column: col, Value: raw, Err: core.ErrNegativeCount}
	}
	return n, nil
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(v, target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return strings.TrimSpace(arr[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
