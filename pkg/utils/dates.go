package utils

import (
	"strings"
	"time"
)

// Date layouts
const (
	DATE_KEY_LAYOUT     = "2006-01-02"
	DATE_DISPLAY_LAYOUT = "02/01/2006"
)

// PERIOD_UNIDENTIFIED labels an import where no row carried a parseable date
const PERIOD_UNIDENTIFIED = "Unidentified period"

// dateLayouts is the closed set of accepted telemetry date formats. Day and
// month accept one or two digits; the year accepts four or two digits.
var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2/1/2006",
	"2/1/06",
	"2.1.2006",
	"2.1.06",
	"2-1-2006",
	"2-1-06",
}

// ParseFlexibleDate parses a calendar date in any accepted format, ignoring a
// trailing time-of-day. The result is normalized to midnight UTC.
func ParseFlexibleDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	// Drop time of day: "2024-01-05T08:00:00Z", "05/01/2024 08:00"
	if i := strings.IndexAny(value, " T"); i > 0 {
		value = value[:i]
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// DateKey returns the comparable calendar key of t. Dates are stored as UTC
// midnight, and drivers may hand them back in the server's zone, so the key
// is always taken in UTC.
func DateKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DATE_KEY_LAYOUT)
}

// ParseDateKey parses a key produced by DateKey
func ParseDateKey(key string) (time.Time, bool) {
	t, err := time.Parse(DATE_KEY_LAYOUT, key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatPeriodLabel renders the reporting period between two date keys
func FormatPeriodLabel(startKey, endKey string) string {
	start, ok := ParseDateKey(startKey)
	if !ok {
		return PERIOD_UNIDENTIFIED
	}
	end, ok := ParseDateKey(endKey)
	if !ok || startKey == endKey {
		return start.Format(DATE_DISPLAY_LAYOUT)
	}
	return start.Format(DATE_DISPLAY_LAYOUT) + " - " + end.Format(DATE_DISPLAY_LAYOUT)
}
