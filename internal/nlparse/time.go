// Package nlparse normalizes free-text time and date expressions from
// voice commands into canonical values.
package nlparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ClockTime is a 12-hour wall-clock time extracted from command text.
type ClockTime struct {
	Hour   int // 1-12
	Minute int // 0-59
	IsPM   bool
}

// timePattern matches "4:30", "4 30", "4.30", "430" style fragments.
// Hour is 1-2 digits, minutes are an optional 2-digit group.
var timePattern = regexp.MustCompile(`(\d{1,2})[:.\s]*(\d{2})?`)

// ParseClockTime extracts the first time-of-day expression from text.
//
// The am/pm period is detected by substring search over the whole text,
// not anchored to the matched digits. A command like "remind me about
// the pm meeting at 4" therefore reads as 4 PM. This mirrors the
// dashboard's historical behavior; see DESIGN.md before changing it.
func ParseClockTime(text string) (ClockTime, error) {
	lower := strings.ToLower(text)
	m := timePattern.FindStringSubmatch(lower)
	if m == nil {
		return ClockTime{}, &ValidationError{Field: "time", Msg: "no time found in command"}
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return ClockTime{}, &ValidationError{Field: "time", Msg: "invalid hour"}
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return ClockTime{}, &ValidationError{Field: "time", Msg: "invalid minutes"}
		}
	}

	if hour < 1 || hour > 12 {
		return ClockTime{}, &ValidationError{Field: "time", Msg: "hour must be between 1 and 12"}
	}
	if minute < 0 || minute > 59 {
		return ClockTime{}, &ValidationError{Field: "time", Msg: "minutes must be between 0 and 59"}
	}

	return ClockTime{
		Hour:   hour,
		Minute: minute,
		IsPM:   strings.Contains(lower, "pm"),
	}, nil
}

// Hour24 converts to 24-hour form.
func (c ClockTime) Hour24() int {
	switch {
	case c.IsPM && c.Hour != 12:
		return c.Hour + 12
	case !c.IsPM && c.Hour == 12:
		return 0
	default:
		return c.Hour
	}
}

// HHMM formats the time as a zero-padded 24-hour "HH:MM" string, the
// canonical form stored on alarms.
func (c ClockTime) HHMM() string {
	return fmt.Sprintf("%02d:%02d", c.Hour24(), c.Minute)
}

// FromHHMM parses a canonical "HH:MM" string back to a 12-hour ClockTime.
func FromHHMM(s string) (ClockTime, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, &ValidationError{Field: "time", Msg: "expected HH:MM"}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return ClockTime{}, &ValidationError{Field: "time", Msg: "hour out of range"}
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return ClockTime{}, &ValidationError{Field: "time", Msg: "minutes out of range"}
	}

	c := ClockTime{Minute: m}
	switch {
	case h == 0:
		c.Hour = 12
	case h == 12:
		c.Hour = 12
		c.IsPM = true
	case h > 12:
		c.Hour = h - 12
		c.IsPM = true
	default:
		c.Hour = h
	}
	return c, nil
}

// ValidationError reports malformed time, date or amount input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}
