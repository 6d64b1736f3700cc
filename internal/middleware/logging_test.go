package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingEmitsRequestLine(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/widgets", nil))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d http_request entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodPost {
		t.Errorf("method = %v, want POST", fields["method"])
	}
	if fields["path"] != "/widgets" {
		t.Errorf("path = %v, want /widgets", fields["path"])
	}
	if fields["status_code"] != int64(http.StatusCreated) {
		t.Errorf("status_code = %v, want 201", fields["status_code"])
	}
	if _, ok := fields["duration_ms"]; !ok {
		t.Error("duration_ms field missing")
	}
}

func TestLoggingSanitizesPath(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	req.URL.Path = "/widgets/\x1b[2Jinjected"
	h.ServeHTTP(w, req)

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d http_request entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["path"]; got != "/widgets/[2Jinjected" {
		t.Errorf("path = %q, control characters should be stripped", got)
	}
}

func TestLoggingDefaultStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	// Handler writes a body without an explicit WriteHeader.
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d http_request entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["status_code"]; got != int64(http.StatusOK) {
		t.Errorf("status_code = %v, want 200", got)
	}
}
