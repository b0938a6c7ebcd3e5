package http

import (
	"net/http"
	"time"

	"semmelweis/internal/core"
	applog "semmelweis/internal/log"
	"semmelweis/internal/middleware/ratelimit"
	"semmelweis/internal/middleware/trace"
)

type clinicsResponse struct {
	Clinics []string `json:"clinics"`
}

type recordsResponse struct {
	Clinic  string        `json:"clinic"`
	Records []core.Record `json:"records"`
}

type summaryResponse struct {
	core.FormattedSummary
	BeforeCount int `json:"before_count"`
	AfterCount  int `json:"after_count"`
	Threshold   int `json:"threshold"`
}

type clinicSummaryResponse struct {
	Clinic string `json:"clinic"`
	summaryResponse
}

type statusResponse struct {
	Source      string             `json:"source,omitempty"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	Records     int                `json:"records"`
	LoadedAt    *time.Time         `json:"loaded_at,omitempty"`
	Error       string             `json:"error,omitempty"`
	CacheSize   *int               `json:"cache_size,omitempty"`
	Requests    trace.Metrics      `json:"requests"`
	RateLimit   *ratelimit.Metrics `json:"rate_limit,omitempty"`
	Suspicious  int64              `json:"suspicious_requests"`
}

// sizer is satisfied by cache-backed providers.
type sizer interface {
	Size() int
}

func newSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		FormattedSummary: s.Format(),
		BeforeCount:      s.Before.Count,
		AfterCount:       s.After.Count,
		Threshold:        s.Threshold,
	}
}

func (s *Server) handleClinics(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r.Context())
	if err != nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, s.logDatasetError(r.Context(), err))
		return
	}
	writeJSON(w, r, http.StatusOK, clinicsResponse{Clinics: core.Clinics(ds.Records)})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	selector, err := ParseClinicSelector(r.URL.Query())
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ds, err := s.dataset(r.Context())
	if err != nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, s.logDatasetError(r.Context(), err))
		return
	}
	writeJSON(w, r, http.StatusOK, recordsResponse{
		Clinic:  selector,
		Records: core.FilterByClinic(ds.Records, selector),
	})
}

// handleSummary returns the era comparison over the whole dataset. With
// ?by=clinic it returns one entry per clinic instead.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r.Context())
	if err != nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, s.logDatasetError(r.Context(), err))
		return
	}

	by := r.URL.Query().Get("by")
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Summarizing dataset",
		applog.NewFields().
			WithOperation(applog.OpSummary).
			WithDataset(ds.Source, ds.Fingerprint, len(ds.Records)).
			ToSlice()...)

	switch by {
	case "":
		writeJSON(w, r, http.StatusOK, newSummaryResponse(core.Summarize(ds.Records, core.HandwashingYear)))
	case "clinic":
		per := core.PerClinicSummary(ds.Records, core.HandwashingYear)
		out := make([]clinicSummaryResponse, 0, len(per))
		for _, cs := range per {
			out = append(out, clinicSummaryResponse{Clinic: cs.Clinic, summaryResponse: newSummaryResponse(cs.Summary)})
		}
		writeJSON(w, r, http.StatusOK, out)
	default:
		writeJSONError(w, r, http.StatusBadRequest, "unsupported grouping")
	}
}

// handleStatus reports dataset identity and request counters. It answers 200
// even when the dataset cannot be loaded.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Requests:   s.tracer.GetMetrics(),
		Suspicious: s.detector.SuspiciousRequests(),
	}
	if s.limiter != nil {
		m := s.limiter.GetMetrics()
		resp.RateLimit = &m
	}
	if c, ok := s.data.(sizer); ok {
		n := c.Size()
		resp.CacheSize = &n
	}

	ds, err := s.dataset(r.Context())
	if err != nil {
		resp.Error = s.logDatasetError(r.Context(), err)
	} else {
		resp.Source = ds.Source
		resp.Fingerprint = ds.Fingerprint
		resp.Records = len(ds.Records)
		if !ds.LoadedAt.IsZero() {
			t := ds.LoadedAt.UTC()
			resp.LoadedAt = &t
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}
