package dashboard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/tally/internal/dashboard"
	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

// Wednesday.
var ref = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func rec(id string, t estimate.Type, returned string, status estimate.Status, billed *bool) estimate.Record {
	return estimate.Record{
		ID:           id,
		EstimateType: t,
		DateReturned: returned,
		Status:       status,
		Billed:       billed,
	}
}

func sample() []estimate.Record {
	return []estimate.Record{
		rec("1", estimate.TypeInitial, "2024-03-13", estimate.StatusDone, nil),
		rec("2", estimate.TypeFinal, "2024-03-12", estimate.StatusDone, new(false)),
		rec("3", estimate.TypeFinal, "2024-03-10", estimate.StatusDone, new(true)),
		rec("4", estimate.TypeInitial, "2024-03-09", estimate.StatusDone, nil),
		rec("5", estimate.TypeFinal, "", estimate.StatusInProgress, new(false)),
		rec("6", estimate.TypeInitial, "", estimate.StatusNotStarted, nil),
		rec("7", estimate.TypeInitial, "2024-02-28", estimate.StatusDone, nil),
		rec("8", estimate.TypeInitial, "not-a-date", estimate.StatusDone, nil),
	}
}

func ids(records []estimate.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}

	return out
}

func TestCountsInWindow(t *testing.T) {
	tests := []struct {
		g    datewindow.Granularity
		want dashboard.Counts
	}{
		{g: datewindow.Daily, want: dashboard.Counts{Initial: 1, Final: 0, Total: 1}},
		{g: datewindow.Weekly, want: dashboard.Counts{Initial: 1, Final: 2, Total: 3}},
		{g: datewindow.Monthly, want: dashboard.Counts{Initial: 2, Final: 2, Total: 4}},
	}

	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			assert.Equal(t, tt.want, dashboard.CountsInWindow(sample(), tt.g, ref))
		})
	}
}

func TestCountByTypeInWindow_TodayAndYesterday(t *testing.T) {
	now := time.Now()
	today := datewindow.FormatDate(now)
	yesterday := datewindow.FormatDate(now.AddDate(0, 0, -1))

	records := []estimate.Record{
		rec("today", estimate.TypeInitial, today, estimate.StatusDone, nil),
		rec("yesterday", estimate.TypeInitial, yesterday, estimate.StatusDone, nil),
	}

	assert.Equal(t, 1, dashboard.CountByTypeInWindow(records, estimate.TypeInitial, datewindow.Daily, now))
	assert.Equal(t, []string{"today"}, ids(dashboard.WindowQueue(records, datewindow.Daily, now)))

	if now.Month() == now.AddDate(0, 0, -1).Month() {
		assert.Equal(t, 2, dashboard.CountByTypeInWindow(records, estimate.TypeInitial, datewindow.Monthly, now))
	}
}

func TestQueues(t *testing.T) {
	records := sample()

	assert.Equal(t, []string{"2", "5"}, ids(dashboard.UnbilledFinalQueue(records)))
	assert.Equal(t, []string{"5", "6"}, ids(dashboard.OpenWorkQueue(records)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(dashboard.WindowQueue(records, datewindow.Weekly, ref)))
	assert.Empty(t, dashboard.UnbilledFinalQueue(nil))
}

func TestProductivityMetrics(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		ot, pto   float64
		wantHours float64
		wantHour  float64
		wantDay   float64
	}{
		{name: "Overtime", count: 5, ot: 5, wantHours: 45, wantHour: 0.111, wantDay: 0.889},
		{name: "Standard", count: 40, wantHours: 40, wantHour: 1, wantDay: 8},
		{name: "AllPTO", count: 3, pto: 60, wantHours: 1, wantHour: 3, wantDay: 24},
		{name: "NoWork", count: 0, ot: 2, pto: 2, wantHours: 40, wantHour: 0, wantDay: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dashboard.ProductivityMetrics(tt.count, tt.ot, tt.pto)

			assert.Equal(t, tt.wantHours, got.EffectiveHours)
			assert.GreaterOrEqual(t, got.EffectiveHours, 1.0)
			assert.InDelta(t, tt.wantHour, got.PerHour, 0.001)
			assert.InDelta(t, tt.wantDay, got.PerDay, 0.001)
		})
	}
}

func TestBuild(t *testing.T) {
	anchors := dashboard.DefaultAnchors(ref)
	anchors.Granularity = datewindow.Weekly
	anchors.Day = "2024-03-12"
	anchors.Month = "2024-02"
	anchors.OvertimeHours = 5

	snap := dashboard.Build(sample(), anchors, time.UTC)

	assert.Equal(t, dashboard.Counts{Initial: 1, Final: 2, Total: 3}, snap.Counts)
	assert.Equal(t, []string{"2"}, ids(snap.Day.Records))
	assert.Equal(t, []string{"1", "2", "3"}, ids(snap.Week.Records))
	assert.Equal(t, []string{"7"}, ids(snap.Month.Records))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), snap.Week.Start)
	assert.Equal(t, 3, snap.Productivity.WeeklyCount)
	assert.Equal(t, 45.0, snap.Productivity.EffectiveHours)
	assert.Equal(t, []string{"2", "5"}, ids(snap.Unbilled))
}
