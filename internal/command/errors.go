package command

import (
	"errors"

	"github.com/voiceboard/voiceboard/internal/nlparse"
)

// ErrNotRecognized is returned when no handler matches the command text.
var ErrNotRecognized = errors.New("command not recognized, please try again with a different phrase")

// NotUnderstoodError is returned when a handler matched the command but
// could not extract the parameters it needs (pattern mismatch, empty
// capture). No state is mutated.
type NotUnderstoodError struct {
	What string // e.g. "the task description"
	Hint string // optional usage hint shown to the user
}

func (e *NotUnderstoodError) Error() string {
	if e.Hint != "" {
		return "could not understand " + e.What + "; " + e.Hint
	}
	return "could not understand " + e.What
}

// IsValidationError reports whether err is a user-input problem (bad
// time/date/amount or unparseable command shape) as opposed to an
// internal failure.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var ve *nlparse.ValidationError
	var ne *NotUnderstoodError
	return errors.As(err, &ve) || errors.As(err, &ne) || errors.Is(err, ErrNotRecognized)
}
