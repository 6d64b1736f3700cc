package nlparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts is the fixed ordered list of accepted date formats. The
// first layout that parses to a valid calendar date wins.
var dateLayouts = []string{
	"January 2 2006",
	"January 2",
	"Jan 2 2006",
	"Jan 2",
	"2006-1-2",
	"1/2/2006",
	"1-2-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

var (
	trailingPunct  = regexp.MustCompile(`[.,!?]+$`)
	ordinalSuffix  = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)
	multiSpace     = regexp.MustCompile(`\s+`)
	alphaWordStart = regexp.MustCompile(`(^|\s)([a-z])`)
)

// CleanDateString strips trailing punctuation and ordinal suffixes,
// collapses whitespace and lowercases the fragment.
func CleanDateString(s string) string {
	s = strings.ToLower(s)
	s = trailingPunct.ReplaceAllString(s, "")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseDate parses a free-text calendar date fragment such as
// "December 25th", "Dec 25, 2026" or "12/25/2026".
//
// If the raw text does not contain the current year as a literal
// substring, the parsed year is overwritten with the current year. That
// is a policy, not detection of a year field: "12/25/1999" parses but
// lands in the current year.
func ParseDate(raw string) (time.Time, error) {
	return parseDateAt(raw, time.Now())
}

// parseDateAt is ParseDate with an injectable clock for tests.
func parseDateAt(raw string, now time.Time) (time.Time, error) {
	cleaned := CleanDateString(raw)
	// Go layouts want "December", the cleaned text has "december".
	titled := titleWords(cleaned)

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, titled)
		if err != nil {
			continue
		}
		if !strings.Contains(raw, strconv.Itoa(now.Year())) {
			month, day := parsed.Month(), parsed.Day()
			parsed = time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
			// Year-less layouts parse against year 0, which is a leap
			// year, so "february 29" survives to this point. time.Date
			// normalizes the overflow (Feb 29 becomes Mar 1); treat that
			// as an invalid date rather than silently shifting it.
			if parsed.Month() != month || parsed.Day() != day {
				break
			}
		}
		return parsed, nil
	}

	return time.Time{}, &ValidationError{
		Field: "date",
		Msg:   fmt.Sprintf(`could not parse %q; use a format like "December 25" or "Dec 25"`, raw),
	}
}

// titleWords capitalizes the first letter of each word so lowercase
// month names match Go's time layouts.
func titleWords(s string) string {
	return alphaWordStart.ReplaceAllStringFunc(s, strings.ToUpper)
}
