package datewindow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayBounds(t *testing.T) {
	ref := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

	b := datewindow.DayBounds(ref)
	assert.Equal(t, date(2024, 3, 1), b.Start)
	assert.Equal(t, date(2024, 3, 2), b.End)
}

func TestWeekBounds_StartsOnSunday(t *testing.T) {
	refs := []time.Time{
		date(2024, 3, 3),   // Sunday
		date(2024, 3, 6),   // Wednesday
		date(2024, 3, 9),   // Saturday
		date(2024, 12, 31), // crosses year end
		time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC),
	}

	for _, ref := range refs {
		b := datewindow.WeekBounds(ref)
		assert.Equal(t, time.Sunday, b.Start.Weekday(), "ref %s", ref)
		assert.Equal(t, 7*24*time.Hour, b.End.Sub(b.Start), "ref %s", ref)
		assert.True(t, b.Contains(ref), "ref %s", ref)
	}

	b := datewindow.WeekBounds(date(2024, 3, 6))
	assert.Equal(t, date(2024, 3, 3), b.Start)
	assert.Equal(t, date(2024, 3, 10), b.End)
}

func TestMonthBounds(t *testing.T) {
	b := datewindow.MonthBounds(date(2024, 1, 31))
	assert.Equal(t, date(2024, 1, 1), b.Start)
	assert.Equal(t, date(2024, 2, 1), b.End)

	b = datewindow.MonthBounds(date(2024, 12, 15))
	assert.Equal(t, date(2025, 1, 1), b.End)
}

func TestIsWithin(t *testing.T) {
	ref := date(2024, 3, 6)

	type testCase struct {
		name    string
		dateStr string
		g       datewindow.Granularity
		want    bool
	}

	tests := []testCase{
		{name: "same day daily", dateStr: "2024-03-06", g: datewindow.Daily, want: true},
		{name: "previous day daily", dateStr: "2024-03-05", g: datewindow.Daily, want: false},
		{name: "sunday weekly", dateStr: "2024-03-03", g: datewindow.Weekly, want: true},
		{name: "saturday weekly", dateStr: "2024-03-09", g: datewindow.Weekly, want: true},
		{name: "next sunday weekly", dateStr: "2024-03-10", g: datewindow.Weekly, want: false},
		{name: "first of month", dateStr: "2024-03-01", g: datewindow.Monthly, want: true},
		{name: "last of month", dateStr: "2024-03-31", g: datewindow.Monthly, want: true},
		{name: "next month", dateStr: "2024-04-01", g: datewindow.Monthly, want: false},
		{name: "rfc3339", dateStr: "2024-03-06T10:00:00Z", g: datewindow.Daily, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, datewindow.IsWithin(tt.dateStr, tt.g, ref))
		})
	}
}

func TestIsWithin_EmptyAndUnparseableNeverMatch(t *testing.T) {
	refs := []time.Time{date(2024, 3, 6), {}}
	inputs := []string{"", "not a date", "2024-13-45", "03/06/2024"}

	for _, ref := range refs {
		for _, g := range []datewindow.Granularity{datewindow.Daily, datewindow.Weekly, datewindow.Monthly} {
			for _, in := range inputs {
				assert.False(t, datewindow.IsWithin(in, g, ref), "%q %s", in, g)
			}
		}
	}
}

func TestIsWithin_TodayVsYesterday(t *testing.T) {
	now := time.Now()
	today := datewindow.FormatDate(now)
	yesterday := datewindow.FormatDate(now.AddDate(0, 0, -1))

	assert.True(t, datewindow.IsWithin(today, datewindow.Daily, now))
	assert.False(t, datewindow.IsWithin(yesterday, datewindow.Daily, now))

	if now.AddDate(0, 0, -1).Month() == now.Month() {
		assert.True(t, datewindow.IsWithin(today, datewindow.Monthly, now))
		assert.True(t, datewindow.IsWithin(yesterday, datewindow.Monthly, now))
	}
}

func TestShiftAnchor(t *testing.T) {
	type testCase struct {
		name      string
		anchor    string
		g         datewindow.Granularity
		direction int
		want      string
	}

	tests := []testCase{
		{name: "day forward", anchor: "2024-02-28", g: datewindow.Daily, direction: 1, want: "2024-02-29"},
		{name: "day back across month", anchor: "2024-03-01", g: datewindow.Daily, direction: -1, want: "2024-02-29"},
		{name: "week back", anchor: "2024-03-06", g: datewindow.Weekly, direction: -1, want: "2024-02-28"},
		{name: "week forward across year", anchor: "2024-12-28", g: datewindow.Weekly, direction: 1, want: "2025-01-04"},
		{name: "month forward", anchor: "2024-01", g: datewindow.Monthly, direction: 1, want: "2024-02"},
		{name: "month back across year", anchor: "2024-01", g: datewindow.Monthly, direction: -1, want: "2023-12"},
		{name: "month from day 31 forward", anchor: "2024-01-31", g: datewindow.Monthly, direction: 1, want: "2024-02"},
		{name: "month from day 31 back", anchor: "2024-03-31", g: datewindow.Monthly, direction: -1, want: "2024-02"},
		{name: "large direction is one step", anchor: "2024-03", g: datewindow.Monthly, direction: 5, want: "2024-04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, datewindow.ShiftAnchor(tt.anchor, tt.g, tt.direction))
		})
	}
}

func TestParseAnchor(t *testing.T) {
	got := datewindow.ParseAnchor("2024-03", datewindow.Monthly, time.UTC)
	assert.Equal(t, date(2024, 3, 1), got)

	got = datewindow.ParseAnchor("2024-03-17", datewindow.Monthly, time.UTC)
	assert.Equal(t, date(2024, 3, 1), got)

	got = datewindow.ParseAnchor("2024-03-17", datewindow.Weekly, time.UTC)
	assert.Equal(t, date(2024, 3, 17), got)

	got = datewindow.ParseAnchor("garbage", datewindow.Daily, time.UTC)
	assert.Equal(t, datewindow.FormatDate(time.Now().UTC()), datewindow.FormatDate(got))
}

func TestParseGranularity(t *testing.T) {
	g, err := datewindow.ParseGranularity("weekly")
	require.NoError(t, err)
	assert.Equal(t, datewindow.Weekly, g)

	_, err = datewindow.ParseGranularity("yearly")
	assert.Error(t, err)
}

func TestInstant(t *testing.T) {
	got, err := datewindow.Instant("2024-03-01", "09:15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC), got)

	_, err = datewindow.Instant("2024-03-01", "9am", time.UTC)
	assert.Error(t, err)
}
