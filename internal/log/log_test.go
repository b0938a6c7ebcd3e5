package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})
	l.Info("hello", FieldClinic, "clinic 1")
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, ComponentHTTP, entry[FieldComponent])
	assert.Equal(t, "clinic 1", entry[FieldClinic])
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Output: &buf}).WithComponent(ComponentCache)
	l.Info("x")
	assert.Equal(t, ComponentCache, l.Component())
	assert.Equal(t, 1, strings.Count(buf.String(), "component="))
	assert.Contains(t, buf.String(), "component=cache")
}

func TestMiddlewareAndFromContext(t *testing.T) {
	l := New(Config{Output: &bytes.Buffer{}, Component: "test"})
	var got *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Same(t, l, got)

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf, Format: "json"}))
	r := httptest.NewRequest(http.MethodGet, "/api/summary?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, 503, 12, "1.2.3.4", "req_1")
	sl.LogDatasetLoaded(context.Background(), "csv:x", "fp", 18)
	sl.LogError(context.Background(), "boom", errors.New("bad"), OpLoad, NewFields().WithClinic("all"))

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR","msg":"HTTP request completed"`)
	assert.Contains(t, out, `"status_code":503`)
	assert.Contains(t, out, `"records":18`)
	assert.Contains(t, out, `"error":"bad"`)
}
