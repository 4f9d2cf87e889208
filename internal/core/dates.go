package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var (
	errEmptyDate   = errors.New("date is required")
	errNotCalendar = errors.New("expected a calendar date (YYYY-MM-DD)")
)

// ParseDate reads a calendar date or a timestamp and returns the UTC day it falls on.
func ParseDate(s string) (Date, error) {
	t, err := ParseInstant(s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// ParseCalendarDate accepts only YYYY-MM-DD. Cutoffs are whole days, so a
// timestamp is rejected rather than truncated to its day.
func ParseCalendarDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, errEmptyDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, errNotCalendar
	}
	return DateOf(t), nil
}

// ParseInstant reads a calendar date (midnight UTC) or a timestamp.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyDate
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
