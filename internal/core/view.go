package core

import "strings"

// View is everything the dashboard shows for one selector state.
type View struct {
	Selector string
	Clinics  []string
	Records  []Record
	Summary  Summary
	Series   map[Metric][]Series
}

// BuildView derives the dashboard view from the full dataset and a clinic
// selector. The summary always covers the full dataset; only the records and
// chart series follow the selector.
func BuildView(ds Dataset, selector string) View {
	sel := strings.TrimSpace(selector)
	if IsAllClinics(sel) {
		sel = AllClinics
	}
	filtered := FilterByClinic(ds.Records, sel)

	series := make(map[Metric][]Series, len(Metrics))
	for _, m := range Metrics {
		series[m] = SeriesByClinic(filtered, m)
	}

	return View{
		Selector: sel,
		Clinics:  Clinics(ds.Records),
		Records:  filtered,
		Summary:  Summarize(ds.Records, HandwashingYear),
		Series:   series,
	}
}
