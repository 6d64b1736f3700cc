package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize caps request bodies at 1 MiB. This is sized to
// admit a full voice audio chunk; JSON payloads are far smaller.
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize rejects oversized request bodies before a handler
// reads them.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Fast reject when the client declares the length.
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			// MaxBytesReader guards chunked uploads with no declared length.
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}
