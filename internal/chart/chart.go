// Package chart renders per-clinic time series as SVG line charts.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"semmelweis/internal/core"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 720
	DefaultHeight = 320
)

// MarkerLabel names the vertical rule drawn at the handwashing year.
const MarkerLabel = "Handwashing introduced"

var markerColor = drawing.ColorFromHex("b91c1c")

// Options control the rendered size and the marker year.
type Options struct {
	Width     int
	Height    int
	Threshold int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Threshold == 0 {
		o.Threshold = core.HandwashingYear
	}
	return o
}

// Title is the chart heading for a metric.
func Title(m core.Metric) string {
	switch m {
	case core.MetricBirths:
		return "Yearly births by clinic"
	case core.MetricDeaths:
		return "Yearly deaths by clinic"
	case core.MetricMortality:
		return "Mortality rate by clinic"
	}
	return string(m)
}

func yAxisName(m core.Metric) string {
	if m == core.MetricMortality {
		return "Deaths per 100 births (%)"
	}
	return "Count"
}

// lineStyle returns a connected line with visible points.
func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

// SVG writes one line per series plus a dashed vertical rule at the
// threshold year. Empty input still renders axes and the rule.
func SVG(w io.Writer, metric core.Metric, series []core.Series, opts Options) error {
	opts = opts.withDefaults()

	minYear, maxYear := opts.Threshold, opts.Threshold
	maxValue := 0.0
	for _, s := range series {
		for _, p := range s.Points {
			minYear = min(minYear, p.Year)
			maxYear = max(maxYear, p.Year)
			maxValue = math.Max(maxValue, p.Value)
		}
	}
	yMax := niceCeil(maxValue * 1.1)

	out := make([]gochart.Series, 0, len(series)+1)
	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j] = float64(p.Year)
			ys[j] = p.Value
		}
		// A single point needs a second sample for the series to have extent.
		if len(xs) == 1 {
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		out = append(out, gochart.ContinuousSeries{
			Name:    s.Clinic,
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(gochart.GetDefaultColor(i)),
		})
	}
	out = append(out, gochart.ContinuousSeries{
		Name:    fmt.Sprintf("%s (%d)", MarkerLabel, opts.Threshold),
		XValues: []float64{float64(opts.Threshold), float64(opts.Threshold)},
		YValues: []float64{0, yMax},
		Style: gochart.Style{
			StrokeColor:     markerColor,
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5, 4},
		},
	})

	ch := gochart.Chart{
		Title:      Title(metric),
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  "Year",
			Range: &gochart.ContinuousRange{Min: float64(minYear) - 0.5, Max: float64(maxYear) + 0.5},
			Ticks: yearTicks(minYear, maxYear),
		},
		YAxis: gochart.YAxis{
			Name:           yAxisName(metric),
			Range:          &gochart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: valueFormatter(metric),
		},
		Series: out,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(gochart.SVG, &buf); err != nil {
		return fmt.Errorf("render %s chart: %w", metric, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func yearTicks(from, to int) []gochart.Tick {
	step := 1
	if span := to - from; span > 12 {
		step = (span + 11) / 12
	}
	ticks := make([]gochart.Tick, 0, (to-from)/step+1)
	for y := from; y <= to; y += step {
		ticks = append(ticks, gochart.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}
	return ticks
}

func valueFormatter(m core.Metric) gochart.ValueFormatter {
	if m == core.MetricMortality {
		return func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return strconv.FormatFloat(f, 'f', 0, 64) + "%"
			}
			return ""
		}
	}
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
		return ""
	}
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten. Zero maps to 1.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}
