package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyHTML("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerClinicChanged("clinic 1").
		TriggerNotification(NotificationWarning, "No records", 2000).
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}
	for _, part := range []string{
		`"clinic:changed"`,
		`"clinic":"clinic 1"`,
		`"show-notification"`,
		`"type":"warning"`,
		`"duration":2000`,
	} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *HTMXResponseBuilder
		wantCode int
	}{
		{"bad request", BadRequestError("bad <clinic>"), http.StatusBadRequest},
		{"not found", NotFoundError("bad <clinic>"), http.StatusNotFound},
		{"unavailable", ServiceUnavailableError("bad <clinic>"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
			body := w.Body.String()
			if strings.Contains(body, "<clinic>") || !strings.Contains(body, "&lt;clinic&gt;") {
				t.Errorf("message not escaped: %s", body)
			}
		})
	}

	w := httptest.NewRecorder()
	ServiceUnavailableError("dataset not available").Write(w)
	if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Errorf("503 should raise an error notification: %s", w.Header().Get("HX-Trigger"))
	}
}
