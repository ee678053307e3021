package domain

import (
	"fmt"
	"strings"
	"time"
)

// Bucket is the due-date classification of a task relative to a reference
// instant.
type Bucket string

const (
	BucketNoDue  Bucket = "no_due"
	BucketToday  Bucket = "today"
	BucketLate   Bucket = "late"
	BucketFuture Bucket = "future"
)

// DueFilter is the filter vocabulary exposed to view callers.
type DueFilter string

const (
	DueFilterAll       DueFilter = "all"
	DueFilterToday     DueFilter = "today"
	DueFilterLateToday DueFilter = "late_today"
	DueFilterLate      DueFilter = "late"
	DueFilterNoDue     DueFilter = "no_due"
	DueFilterNotDueYet DueFilter = "not_due_yet"
)

// Valid reports whether f is a known filter. The empty filter is read as
// DueFilterAll.
func (f DueFilter) Valid() bool {
	switch f {
	case "", DueFilterAll, DueFilterToday, DueFilterLateToday, DueFilterLate, DueFilterNoDue, DueFilterNotDueYet:
		return true
	}
	return false
}

const dateOnlyLayout = "2006-01-02"

// Due is a task deadline. A date-only due names a calendar day with no time
// component; it compares as the last instant of that day in the viewer's
// zone, so the task does not turn late the moment its due day begins.
type Due struct {
	At       time.Time `json:"at"`
	DateOnly bool      `json:"date_only,omitempty"`
}

// ParseDue accepts a calendar day ("2006-01-02") or an RFC3339 timestamp.
// Empty input means no due date. Date-only values are normalized to UTC
// midnight of the named day; the zone they display in is decided at
// classification time, not at parse time.
func ParseDue(value string) (*Due, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateOnlyLayout, value); err == nil {
		return &Due{At: t.UTC(), DateOnly: true}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, WrapError(ErrCodeInvalid, fmt.Sprintf("unparseable due date %q", value), err)
	}
	return &Due{At: t}, nil
}

// String renders the due in the form ParseDue accepts.
func (d *Due) String() string {
	if d == nil {
		return ""
	}
	if d.DateOnly {
		return d.At.UTC().Format(dateOnlyLayout)
	}
	return d.At.Format(time.RFC3339)
}

// Resolve returns the instant the due compares as, in loc. Date-only values
// become 23:59:59.999 of their calendar day in loc; timestamps are used
// as-is.
func (d *Due) Resolve(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if d.DateOnly {
		year, month, day := d.At.UTC().Date()
		return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), loc)
	}
	return d.At
}

// BucketOf places a due date in exactly one bucket relative to now. The
// comparison is by calendar day in now's zone, not by instant: both sides are
// truncated to local midnight first. This is the single implementation of
// due-date classification; every view and filter goes through it.
func BucketOf(due *Due, now time.Time) Bucket {
	if due == nil {
		return BucketNoDue
	}
	loc := now.Location()
	dueDay := dayOf(due.Resolve(loc), loc)
	nowDay := dayOf(now, loc)
	switch {
	case dueDay.After(nowDay):
		return BucketFuture
	case dueDay.Before(nowDay):
		return BucketLate
	default:
		return BucketToday
	}
}

// MatchesDueFilter reports whether a due date passes filter at the reference
// instant. DueFilterAll and DueFilterNotDueYet are the only filters under
// which future-dated tasks surface; the rest match by exact bucket and so
// hide them.
func MatchesDueFilter(due *Due, now time.Time, filter DueFilter) bool {
	switch filter {
	case "", DueFilterAll:
		return true
	case DueFilterNotDueYet:
		return BucketOf(due, now) == BucketFuture
	case DueFilterLateToday:
		b := BucketOf(due, now)
		return b == BucketToday || b == BucketLate
	case DueFilterToday:
		return BucketOf(due, now) == BucketToday
	case DueFilterLate:
		return BucketOf(due, now) == BucketLate
	case DueFilterNoDue:
		return BucketOf(due, now) == BucketNoDue
	default:
		return false
	}
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
