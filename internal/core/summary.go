package core

import "strconv"

// NoData is shown in place of an average over an empty partition.
const NoData = "no data"

// Average is a mean mortality rate over a partition. OK is false when the
// partition had no record with a defined rate.
type Average struct {
	Value float64
	Count int
	OK    bool
}

// Summary compares mortality before and after the threshold year.
type Summary struct {
	Threshold int
	Before    Average
	After     Average
}

// FormattedSummary is the display form of a Summary.
type FormattedSummary struct {
	Before string `json:"before"`
	After  string `json:"after"`
	Delta  string `json:"delta"`
}

// ClinicSummary is the era comparison restricted to a single clinic.
type ClinicSummary struct {
	Clinic string
	Summary
}

func average(records []Record) Average {
	v, n, err := MeanMortality(records)
	if err != nil {
		return Average{}
	}
	return Average{Value: v, Count: n, OK: true}
}

// Summarize splits records at threshold and averages each side.
func Summarize(records []Record, threshold int) Summary {
	before, after := SplitEra(records, threshold)
	return Summary{
		Threshold: threshold,
		Before:    average(before),
		After:     average(after),
	}
}

// Delta is After minus Before in percentage points. ok is false unless both
// sides have data.
func (s Summary) Delta() (delta float64, ok bool) {
	if !s.Before.OK || !s.After.OK {
		return 0, false
	}
	return s.After.Value - s.Before.Value, true
}

// Format renders the summary as "10.00%", "2.00%", "-8.00 pts".
func (s Summary) Format() FormattedSummary {
	f := FormattedSummary{
		Before: formatAverage(s.Before),
		After:  formatAverage(s.After),
		Delta:  NoData,
	}
	if d, ok := s.Delta(); ok {
		f.Delta = strconv.FormatFloat(d, 'f', 2, 64) + " pts"
	}
	return f
}

func formatAverage(a Average) string {
	if !a.OK {
		return NoData
	}
	return strconv.FormatFloat(a.Value, 'f', 2, 64) + "%"
}

// PerClinicSummary summarizes each clinic separately, in clinic name order.
func PerClinicSummary(records []Record, threshold int) []ClinicSummary {
	clinics := Clinics(records)
	out := make([]ClinicSummary, 0, len(clinics))
	for _, c := range clinics {
		out = append(out, ClinicSummary{
			Clinic:  c,
			Summary: Summarize(FilterByClinic(records, c), threshold),
		})
	}
	return out
}
