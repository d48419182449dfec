package models

import (
	"strings"
	"time"
)

// DateLayout is the calendar-day format used in filters and dashboard output
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	DateLayout,
}

// ParseDate parses an RFC3339 timestamp or a YYYY-MM-DD day
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{Field: "date", Reason: "unrecognized date " + quote(raw)}
}

// ParseStoredDate is lenient: empty or malformed values yield nil so that
// downstream arithmetic never sees a bogus instant.
func ParseStoredDate(raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}

// FormatDay renders t as YYYY-MM-DD, or "" when nil
func FormatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
