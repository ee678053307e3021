package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Classification must behave the same for viewers away from UTC, so the
// tests run against a fixed non-UTC zone.
var testZone = time.FixedZone("UTC-5", -5*60*60)

func TestParseDue_DateOnly(t *testing.T) {
	due, err := ParseDue("2024-03-10")
	require.NoError(t, err)
	require.NotNil(t, due)

	assert.True(t, due.DateOnly)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), due.At)
	assert.Equal(t, "2024-03-10", due.String())
}

func TestParseDue_Timestamp(t *testing.T) {
	due, err := ParseDue("2024-03-10T09:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, due)

	assert.False(t, due.DateOnly)
	assert.True(t, due.At.Equal(time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)))
}

func TestParseDue_Empty(t *testing.T) {
	due, err := ParseDue("  ")
	require.NoError(t, err)
	assert.Nil(t, due)
}

func TestParseDue_Garbage(t *testing.T) {
	_, err := ParseDue("next tuesday")
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestBucketOf_NoDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)
	assert.Equal(t, BucketNoDue, BucketOf(nil, now))
}

// A date-only due on the current day is "today" for the whole day, not late
// the moment the day begins.
func TestBucketOf_DateOnly_Today(t *testing.T) {
	due, err := ParseDue("2024-03-10")
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)
	assert.Equal(t, BucketToday, BucketOf(due, now))

	assert.True(t, MatchesDueFilter(due, now, DueFilterLateToday))
	assert.False(t, MatchesDueFilter(due, now, DueFilterNotDueYet))
}

// The end-of-day reading of a date-only due still ends at midnight: shortly
// after, yesterday's date is late.
func TestBucketOf_DateOnly_LateAfterMidnight(t *testing.T) {
	due, err := ParseDue("2024-03-09")
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 0, 30, 0, 0, testZone)
	assert.Equal(t, BucketLate, BucketOf(due, now))
}

// A UTC-midnight date-only value must not slide into the previous day for
// viewers west of UTC.
func TestBucketOf_DateOnly_ViewerZone(t *testing.T) {
	due, err := ParseDue("2024-03-10")
	require.NoError(t, err)

	earlyMorning := time.Date(2024, 3, 10, 0, 5, 0, 0, testZone)
	assert.Equal(t, BucketToday, BucketOf(due, earlyMorning))
}

func TestBucketOf_Timestamp_UsedAsIs(t *testing.T) {
	// 22:00 UTC on the 10th is 17:00 on the 10th for this viewer: today.
	due := &Due{At: time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)}
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)
	assert.Equal(t, BucketToday, BucketOf(due, now))

	// 03:00 UTC on the 11th is still 22:00 on the 10th locally: today, not
	// future.
	due = &Due{At: time.Date(2024, 3, 11, 3, 0, 0, 0, time.UTC)}
	assert.Equal(t, BucketToday, BucketOf(due, now))

	// A full day ahead is future.
	due = &Due{At: time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)}
	assert.Equal(t, BucketFuture, BucketOf(due, now))
}

func TestBucketOf_Deterministic(t *testing.T) {
	due, err := ParseDue("2024-03-08")
	require.NoError(t, err)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)

	first := BucketOf(due, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BucketOf(due, now))
	}
	assert.Equal(t, BucketLate, first)
}

func TestMatchesDueFilter_LateTodayEquivalence(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)

	dues := []*Due{
		nil,
		{At: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), DateOnly: true},
		{At: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), DateOnly: true},
		{At: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), DateOnly: true},
		{At: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)},
		{At: time.Date(2024, 2, 28, 8, 0, 0, 0, time.UTC)},
	}

	for _, due := range dues {
		bucket := BucketOf(due, now)
		want := bucket == BucketToday || bucket == BucketLate
		assert.Equal(t, want, MatchesDueFilter(due, now, DueFilterLateToday),
			"late_today must match exactly the today+late buckets (bucket=%s)", bucket)
	}
}

func TestMatchesDueFilter_ExactBuckets(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)
	late := &Due{At: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), DateOnly: true}
	today := &Due{At: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), DateOnly: true}
	future := &Due{At: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), DateOnly: true}

	assert.True(t, MatchesDueFilter(late, now, DueFilterLate))
	assert.False(t, MatchesDueFilter(today, now, DueFilterLate))

	assert.True(t, MatchesDueFilter(today, now, DueFilterToday))
	assert.False(t, MatchesDueFilter(future, now, DueFilterToday))

	assert.True(t, MatchesDueFilter(nil, now, DueFilterNoDue))
	assert.False(t, MatchesDueFilter(late, now, DueFilterNoDue))

	// Only all and not_due_yet surface future-dated tasks.
	assert.True(t, MatchesDueFilter(future, now, DueFilterAll))
	assert.True(t, MatchesDueFilter(future, now, DueFilterNotDueYet))
	assert.False(t, MatchesDueFilter(future, now, DueFilterLateToday))
	assert.False(t, MatchesDueFilter(future, now, DueFilterLate))
	assert.False(t, MatchesDueFilter(future, now, DueFilterNoDue))
}

func TestDueFilter_Valid(t *testing.T) {
	for _, f := range []DueFilter{"", DueFilterAll, DueFilterToday, DueFilterLateToday, DueFilterLate, DueFilterNoDue, DueFilterNotDueYet} {
		assert.True(t, f.Valid(), "filter %q", f)
	}
	assert.False(t, DueFilter("overdue").Valid())
}
