package middleware

import (
	"context"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a single request. Transcription and the
// history write happen outside the request cycle, so the only slow call
// a request ever waits on is a chat completion.
const DefaultRequestTimeout = 30 * time.Second

// Timeout enforces a deadline on request handlers: the request context
// is cut off and the client gets a 503 once the timeout elapses.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			handler := http.TimeoutHandler(next, timeout, "Request Timeout")
			handler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
