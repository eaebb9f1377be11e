package services

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDateFormat = errors.New("invalid date format")

// Str2Date parses the leading YYYY-MM-DD of an ISO-like string; longer
// inputs are truncated to their first ten characters.
func Str2Date(value string) (time.Time, error) {
	if len(value) < 10 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, value)
	}
	t, err := time.Parse("2006-01-02", value[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, value)
	}
	return t, nil
}

// Str2DateTime accepts full RFC 3339 or falls back to a bare date.
func Str2DateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return Str2Date(value)
}
