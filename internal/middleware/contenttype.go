package middleware

import (
	"net/http"
	"strings"
)

// ContentType validates request body media types. The API speaks JSON,
// with one exception: voice audio chunks arrive as raw bytes. Bodyless
// POSTs (the voice session transitions) carry no media type and pass
// through.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
		default:
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ct := strings.ToLower(r.Header.Get("Content-Type"))

		if strings.HasSuffix(r.URL.Path, "/voice/session/audio") {
			if ct == "" || strings.HasPrefix(ct, "audio/") ||
				strings.HasPrefix(ct, "application/octet-stream") {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Content-Type must be an audio type", http.StatusUnsupportedMediaType)
			return
		}

		if !strings.HasPrefix(ct, "application/json") {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	})
}
