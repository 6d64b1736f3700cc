package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestContentType(t *testing.T) {
	t.Parallel()

	handler := ContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"get passes without content type", "GET", "/api/v1/widgets", "", "", http.StatusOK},
		{"json post passes", "POST", "/api/v1/widgets", "application/json", `{}`, http.StatusOK},
		{"json with charset passes", "POST", "/api/v1/widgets", "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"xml post rejected", "POST", "/api/v1/widgets", "application/xml", `<x/>`, http.StatusUnsupportedMediaType},
		{"bodyless post passes without content type", "POST", "/api/v1/voice/session/start", "", "", http.StatusOK},
		{"audio chunk as webm passes", "POST", "/api/v1/voice/session/audio", "audio/webm", "bytes", http.StatusOK},
		{"audio chunk as octet stream passes", "POST", "/api/v1/voice/session/audio", "application/octet-stream", "bytes", http.StatusOK},
		{"audio chunk without content type passes", "POST", "/api/v1/voice/session/audio", "", "bytes", http.StatusOK},
		{"json on audio route rejected", "POST", "/api/v1/voice/session/audio", "application/json", `{}`, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
