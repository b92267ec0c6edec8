package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// calendarDayLayout is the canonical CalendarDay form.
const calendarDayLayout = "2006-01-02"

// dateTimeLayouts are tried in order against untrusted date strings.
// The first is the export's native record timestamp format.
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	calendarDayLayout,
}

// isoDatePrefix matches a strict YYYY-MM-DD prefix, the last-resort
// extraction path for strings no layout accepts.
var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// NormalizeDateTime parses an untrusted date string into an instant.
// Empty or unparseable input reports ok=false; callers skip the record
// rather than treat it as an error.
func NormalizeDateTime(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate parses an untrusted date string into a CalendarDay
// (YYYY-MM-DD). The day is always taken from UTC calendar fields so the
// same input yields the same day in every environment. Strings no
// layout accepts but that carry a strict ISO date prefix fall back to
// the first ten characters.
func NormalizeDate(raw string) (string, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", false
	}

	if t, ok := NormalizeDateTime(cleaned); ok {
		return t.UTC().Format(calendarDayLayout), true
	}

	if isoDatePrefix.MatchString(cleaned) {
		return cleaned[:10], true
	}
	return "", false
}

// NormalizeNumber parses an untrusted magnitude string. Missing or
// unparseable input yields 0, the series' "no reading" sentinel.
func NormalizeNumber(raw string) float64 {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
