package http

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"

	"semmelweis/internal/chart"
	"semmelweis/internal/core"
	applog "semmelweis/internal/log"
)

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

type chartLink struct {
	URL   string
	Title string
}

type recordRow struct {
	Era    string
	Year   int
	Clinic string
	Birth  string
	Deaths string
	Rate   string
}

// panelData feeds the "panel" and "summary_block" templates.
type panelData struct {
	Selector    string
	Threshold   int
	Options     []selectOption
	Summary     core.FormattedSummary
	BeforeCount int
	AfterCount  int
	// Compared is set when both eras have an average; Dropped when the
	// later one is lower.
	Compared bool
	Dropped  bool
	Charts      []chartLink
	Rows        []recordRow
	Source      string
	LoadedAt    string
	Error       string
}

type pageData struct {
	Threshold int
	Panel     panelData
}

func newPanelData(ds core.Dataset, selector string) panelData {
	v := core.BuildView(ds, selector)

	opts := make([]selectOption, 0, len(v.Clinics)+1)
	opts = append(opts, selectOption{Value: core.AllClinics, Label: "All clinics", Selected: v.Selector == core.AllClinics})
	for _, c := range v.Clinics {
		opts = append(opts, selectOption{Value: c, Label: c, Selected: v.Selector == c})
	}

	charts := make([]chartLink, 0, len(core.Metrics))
	for _, m := range core.Metrics {
		charts = append(charts, chartLink{
			URL:   "/charts/" + string(m) + ".svg" + selectorQuery(v.Selector),
			Title: chart.Title(m),
		})
	}

	rows := make([]recordRow, 0, len(v.Records))
	for _, r := range v.Records {
		era := "after"
		if r.Before(v.Summary.Threshold) {
			era = "before"
		}
		rows = append(rows, recordRow{
			Era:    era,
			Year:   r.Year,
			Clinic: r.Clinic,
			Birth:  formatCount(r.Birth),
			Deaths: formatCount(r.Deaths),
			Rate:   r.MortalityRate.Percent(),
		})
	}

	delta, compared := v.Summary.Delta()
	return panelData{
		Compared:    compared,
		Dropped:     compared && delta < 0,
		Selector:    v.Selector,
		Threshold:   v.Summary.Threshold,
		Options:     opts,
		Summary:     v.Summary.Format(),
		BeforeCount: v.Summary.Before.Count,
		AfterCount:  v.Summary.After.Count,
		Charts:      charts,
		Rows:        rows,
		Source:      ds.Source,
		LoadedAt:    formatLoadedAt(ds.LoadedAt),
	}
}

// handleDashboard renders the full page. Dataset failures still render the
// page shell with the error in place of the summary and panel.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.templates == nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	selector, err := ParseClinicSelector(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	data := pageData{Threshold: core.HandwashingYear}
	ds, err := s.dataset(ctx)
	if err != nil {
		status = http.StatusServiceUnavailable
		data.Panel = panelData{
			Selector:  selector,
			Threshold: core.HandwashingYear,
			Options:   []selectOption{{Value: core.AllClinics, Label: "All clinics", Selected: true}},
			Error:     s.logDatasetError(ctx, err),
		}
	} else {
		data.Panel = newPanelData(ds, selector)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard_page", data); err != nil {
		templateLogger(ctx).LogError(ctx, "Dashboard template execution failed", err, applog.OpRender, nil)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// handlePanel returns the records-and-charts fragment for the selected clinic.
func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.templates == nil {
		InternalError(w, r, "templates not loaded")
		return
	}

	selector, err := ParseClinicSelector(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ds, err := s.dataset(ctx)
	if err != nil {
		ServiceUnavailableError(s.logDatasetError(ctx, err)).Write(w)
		return
	}

	data := newPanelData(ds, selector)
	applog.FromContext(ctx).DebugContext(ctx, "Rendering panel",
		applog.NewFields().
			WithOperation(applog.OpFilter).
			WithClinic(data.Selector).
			WithDataset(ds.Source, ds.Fingerprint, len(data.Rows)).
			ToSlice()...)

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "panel", data); err != nil {
		templateLogger(ctx).LogError(ctx, "Panel template execution failed", err, applog.OpRender, nil)
		InternalError(w, r, "failed to render panel")
		return
	}

	resp := NewHTMXResponse().
		TriggerClinicChanged(data.Selector).
		Header("HX-Push-Url", "/"+selectorQuery(data.Selector)).
		BodyHTML(buf.String())
	if !core.IsAllClinics(data.Selector) && !core.HasClinic(ds.Records, data.Selector) {
		resp.TriggerNotification(NotificationWarning, "No records for "+data.Selector, 4000)
	}
	resp.Write(w)
}

func templateLogger(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentTemplate))
}

// InternalError writes a 500 fragment.
func InternalError(w http.ResponseWriter, r *http.Request, msg string) {
	ErrorResponse(http.StatusInternalServerError, msg).Write(w)
}

// handleChart renders one metric as SVG for the selected clinic.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metric, ok := ParseChartFile(r.PathValue("file"))
	if !ok {
		NotFoundError("unknown chart").Write(w)
		return
	}

	selector, err := ParseClinicSelector(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ds, err := s.dataset(ctx)
	if err != nil {
		http.Error(w, s.logDatasetError(ctx, err), http.StatusServiceUnavailable)
		return
	}

	etag := chartETag(ds, selector, metric)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	v := core.BuildView(ds, selector)
	var buf bytes.Buffer
	if err := chart.SVG(&buf, metric, v.Series[metric], chart.Options{Threshold: core.HandwashingYear}); err != nil {
		fields := applog.NewFields().WithClinic(v.Selector)
		fields[applog.FieldChart] = string(metric)
		applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentChart)).
			LogError(ctx, "Chart render failed", err, applog.OpRender, fields)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	_, _ = buf.WriteTo(w)
}

// chartETag identifies a chart by dataset version, selector and metric. The
// load time is part of the version because some sources keep a fixed
// fingerprint and only change on reload. An unknown fingerprint yields no tag.
func chartETag(ds core.Dataset, selector string, metric core.Metric) string {
	if ds.Fingerprint == "" {
		return ""
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(ds.Fingerprint + "\x00" + strconv.FormatInt(ds.LoadedAt.UnixNano(), 10) +
		"\x00" + selector + "\x00" + string(metric)))
	return fmt.Sprintf(`"%x"`, h.Sum64())
}
