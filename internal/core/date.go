package core

import (
	"errors"
	"strings"
	"time"
)

// DayLayout is the canonical calendar-day format used in query strings and exports.
const DayLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

type (
	// Date is a calendar day stored at UTC midnight. The zero value means "unknown".
	Date struct {
		time.Time
	}

	// DateRange is an inclusive day range. A zero bound leaves that side open.
	DateRange struct {
		From Date
		To   Date
	}
)

// recordLayouts are tried in order when normalising a record date.
var recordLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	DayLayout,
	"2006/01/02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006",
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a strict YYYY-MM-DD day, as sent by the date pickers.
func ParseDay(s string) (Date, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// NormalizeDay reduces a loosely formatted record date to its calendar day.
// The day is the one written in the value itself: offsets are never applied,
// so "2024-01-01T23:30:00-05:00" and "2024-01-01" land on the same day.
// Unparseable input yields the zero Date.
func NormalizeDay(raw string) Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}
	}
	for _, layout := range recordLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day())
		}
	}
	if len(raw) > len(DayLayout) {
		if t, err := time.Parse(DayLayout, raw[:len(DayLayout)]); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day())
		}
	}
	return Date{}
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders the day as YYYY-MM-DD, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DayLayout)
}

// Compare orders two days; the zero Date sorts first.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

// Contains reports whether d falls inside the range. With any bound set,
// an unknown day never matches.
func (r DateRange) Contains(d Date) bool {
	if r.IsUnbounded() {
		return true
	}
	if d.IsZero() {
		return false
	}
	if !r.From.IsZero() && d.Before(r.From.Time) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To.Time) {
		return false
	}
	return true
}

// IsUnbounded is true when neither bound is set.
func (r DateRange) IsUnbounded() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// ParseDateRange parses optional YYYY-MM-DD bounds. Empty strings leave a side open.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var err error
	if strings.TrimSpace(from) != "" {
		if r.From, err = ParseDay(from); err != nil {
			return DateRange{}, errors.New("invalid from date: " + from)
		}
	}
	if strings.TrimSpace(to) != "" {
		if r.To, err = ParseDay(to); err != nil {
			return DateRange{}, errors.New("invalid to date: " + to)
		}
	}
	return r, nil
}
