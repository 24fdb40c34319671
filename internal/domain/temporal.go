package domain

import (
	"time"
	_ "time/tzdata" // crash times are NZ wall clock regardless of host zoneinfo
)

// DefaultTimeZone is the civil time zone crash times are recorded in.
const DefaultTimeZone = "Pacific/Auckland"

// LocalInstant combines a date and time-of-day into a naive wall-clock value
// (location UTC, not yet localized). The zero time means absent.
func LocalInstant(date time.Time, tod *TimeOfDay) time.Time {
	if date.IsZero() || tod == nil {
		return time.Time{}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, time.UTC)
}

// Localize interprets a naive wall-clock value in loc. In the hour repeated
// when daylight saving ends, the daylight-saving reading is chosen.
func Localize(naive time.Time, loc *time.Location) time.Time {
	if naive.IsZero() {
		return time.Time{}
	}
	t := time.Date(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), naive.Second(), 0, loc)
	for _, c := range []time.Time{t.Add(-time.Hour), t, t.Add(time.Hour)} {
		if c.IsDST() && sameWallClock(c, naive) {
			return c
		}
	}
	return t
}

func sameWallClock(t, naive time.Time) bool {
	y, mo, d := t.Date()
	ny, nmo, nd := naive.Date()
	return y == ny && mo == nmo && d == nd &&
		t.Hour() == naive.Hour() && t.Minute() == naive.Minute()
}

// Severity is the worst injury outcome of a crash.
type Severity string

const (
	SeverityFatal  Severity = "fatal"
	SeveritySevere Severity = "severe"
	SeverityMinor  Severity = "minor"
	SeverityNone   Severity = "none"
)

// ClassifyInjury applies fatal > severe > minor > none. Absent counts are zero.
func ClassifyInjury(fatal, severe, minor *int) Severity {
	switch {
	case positive(fatal):
		return SeverityFatal
	case positive(severe):
		return SeveritySevere
	case positive(minor):
		return SeverityMinor
	default:
		return SeverityNone
	}
}

func positive(n *int) bool {
	return n != nil && *n > 0
}

// Code is the single-letter form used by map clients (f, s, m, n).
func (s Severity) Code() string {
	if s == "" {
		return ""
	}
	return string(s[0])
}

// Serious reports whether the outcome was fatal or severe.
func (s Severity) Serious() bool {
	return s == SeverityFatal || s == SeveritySevere
}

// HolidayPeriod is a named holiday road-toll reporting window.
type HolidayPeriod struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period, bounds included.
func (h HolidayPeriod) Contains(t time.Time) bool {
	return !t.Before(h.Start) && !t.After(h.End)
}

// MatchHoliday returns the first period containing instant, only for fatal or
// severe outcomes. An absent instant never matches.
func MatchHoliday(periods []HolidayPeriod, instant time.Time, worst Severity) string {
	if instant.IsZero() || !worst.Serious() {
		return ""
	}
	for _, p := range periods {
		if p.Contains(instant) {
			return p.Name
		}
	}
	return ""
}
