package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"semmelweis/internal/core"
	applog "semmelweis/internal/log"
)

var printer = message.NewPrinter(language.English)

// formatCount renders an integer with thousands separators, e.g. "3,036".
func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

var templateFuncs = template.FuncMap{
	"formatCount": formatCount,
}

// selectorQuery builds "?clinic=..." for links; the all-clinics selector
// produces no query.
func selectorQuery(selector string) string {
	if core.IsAllClinics(selector) {
		return ""
	}
	return "?" + url.Values{"clinic": {selector}}.Encode()
}

func formatLoadedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "JSON encode failed",
			applog.FieldError, err, applog.FieldPath, r.URL.Path)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}
