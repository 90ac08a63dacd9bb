package services

import (
	"fmt"
	"time"
)

// ParseDate parses a date string in typical formats (YYYY-MM-DD)
// It enforces strict checks but centralizes the logic for future format additions
func ParseDate(dateStr string) (time.Time, error) {
	// Primary format: ISO 8601 (standard for HTML5 date inputs)
	layout := "2006-01-02"

	parsedTime, err := time.Parse(layout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
	}

	return parsedTime, nil
}

// ParseDateTime accepts either a bare date (YYYY-MM-DD) or a full
// RFC 3339 timestamp, which is what the form layer sends depending on
// whether a time component was captured.
func ParseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return ParseDate(value)
}

// DateOnly truncates a timestamp to midnight UTC
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC day
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
