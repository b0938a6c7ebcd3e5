package core

import "sort"

// Metric selects which record field a chart plots.
type Metric string

const (
	MetricBirths    Metric = "births"
	MetricDeaths    Metric = "deaths"
	MetricMortality Metric = "mortality"
)

// Metrics lists every chartable metric in display order.
var Metrics = []Metric{MetricBirths, MetricDeaths, MetricMortality}

// ParseMetric maps a name to a Metric.
func ParseMetric(name string) (Metric, bool) {
	for _, m := range Metrics {
		if string(m) == name {
			return m, true
		}
	}
	return "", false
}

// Point is one (year, value) sample.
type Point struct {
	Year  int
	Value float64
}

// Series is one clinic's values for a metric, ordered by year.
type Series struct {
	Clinic string
	Metric Metric
	Points []Point
}

func (m Metric) value(r Record) (float64, bool) {
	switch m {
	case MetricBirths:
		return float64(r.Birth), true
	case MetricDeaths:
		return float64(r.Deaths), true
	case MetricMortality:
		return r.MortalityRate.Value, r.MortalityRate.Valid
	}
	return 0, false
}

// SeriesByClinic groups records per clinic for metric. Series come back in
// clinic name order with points sorted by year. Records without a value for
// the metric (undefined mortality) are left out.
func SeriesByClinic(records []Record, metric Metric) []Series {
	byClinic := make(map[string][]Point)
	for _, r := range records {
		v, ok := metric.value(r)
		if !ok {
			continue
		}
		byClinic[r.Clinic] = append(byClinic[r.Clinic], Point{Year: r.Year, Value: v})
	}

	out := make([]Series, 0, len(byClinic))
	for _, clinic := range Clinics(records) {
		points, ok := byClinic[clinic]
		if !ok {
			continue
		}
		sort.SliceStable(points, func(i, j int) bool { return points[i].Year < points[j].Year })
		out = append(out, Series{Clinic: clinic, Metric: metric, Points: points})
	}
	return out
}
