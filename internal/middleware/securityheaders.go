package middleware

import (
	"net/http"
)

// SecurityHeaders sets the standard hardening headers on every
// response. The API serves no documents, so the CSP denies everything;
// the dashboard frontend is a separate origin with its own policy.
func SecurityHeaders(enableHSTS bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// Microphone access belongs to the frontend origin; API
			// responses never embed anything that needs it.
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			w.Header().Set("Content-Security-Policy", "default-src 'none'")

			// HSTS only over TLS and only when explicitly enabled, so
			// plain-HTTP local development keeps working.
			if enableHSTS && r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			next.ServeHTTP(w, r)
		})
	}
}
