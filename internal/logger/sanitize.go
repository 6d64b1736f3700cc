package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength caps URL paths in log fields.
	MaxPathLength = 500
	// MaxErrorMessageLength caps error messages in log fields.
	MaxErrorMessageLength = 1000
	// MaxTranscriptPreview caps voice transcript previews. Full
	// transcripts never go to the log; a preview is enough to correlate
	// a command with its outcome.
	MaxTranscriptPreview = 120
)

// SanitizePath makes a URL path safe to log: valid UTF-8, no control
// characters, bounded length. Request paths are attacker-controlled and
// otherwise a log-injection vector.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeTranscript returns a bounded, control-character-free preview
// of a voice transcript.
func SanitizeTranscript(transcript string) string {
	return SanitizeString(transcript, MaxTranscriptPreview)
}

// SanitizeError makes an error message safe to log.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeString validates UTF-8, strips control characters (keeping
// space, tab, newline and carriage return) and truncates to maxLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			builder.WriteRune(r)
		}
	}
	s = builder.String()

	if maxLength > 0 && len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}
