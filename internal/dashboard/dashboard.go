// Package dashboard derives queues, counts and productivity figures from a
// snapshot of estimate records. Every function is pure.
package dashboard

import (
	"time"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

const (
	BaseWeekHours = 40
	HoursPerDay   = 8
)

// Counts are estimates returned inside a window, by type.
type Counts struct {
	Initial int
	Final   int
	Total   int
}

// CountByTypeInWindow counts records of type t whose returned date falls in
// the g-window around ref.
func CountByTypeInWindow(records []estimate.Record, t estimate.Type, g datewindow.Granularity, ref time.Time) int {
	n := 0

	for _, r := range records {
		if r.EstimateType == t && datewindow.IsWithin(r.DateReturned, g, ref) {
			n++
		}
	}

	return n
}

func CountsInWindow(records []estimate.Record, g datewindow.Granularity, ref time.Time) Counts {
	c := Counts{
		Initial: CountByTypeInWindow(records, estimate.TypeInitial, g, ref),
		Final:   CountByTypeInWindow(records, estimate.TypeFinal, g, ref),
	}
	c.Total = c.Initial + c.Final

	return c
}

// UnbilledFinalQueue keeps the list order.
func UnbilledFinalQueue(records []estimate.Record) []estimate.Record {
	return filter(records, estimate.Record.Unbilled)
}

func OpenWorkQueue(records []estimate.Record) []estimate.Record {
	return filter(records, func(r estimate.Record) bool { return r.Status.Open() })
}

// WindowQueue returns records returned inside the g-window around ref,
// whatever their type.
func WindowQueue(records []estimate.Record, g datewindow.Granularity, ref time.Time) []estimate.Record {
	return filter(records, func(r estimate.Record) bool {
		return datewindow.IsWithin(r.DateReturned, g, ref)
	})
}

func filter(records []estimate.Record, keep func(estimate.Record) bool) []estimate.Record {
	out := make([]estimate.Record, 0)

	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}

	return out
}

type Productivity struct {
	WeeklyCount    int
	EffectiveHours float64
	PerHour        float64
	PerDay         float64
}

// ProductivityMetrics spreads a week's output over the hours worked:
// 40 plus overtime minus time off, never below one hour.
func ProductivityMetrics(weeklyCount int, otHours, ptoHours float64) Productivity {
	effective := max(1, BaseWeekHours+otHours-ptoHours)
	perHour := float64(weeklyCount) / effective

	return Productivity{
		WeeklyCount:    weeklyCount,
		EffectiveHours: effective,
		PerHour:        perHour,
		PerDay:         perHour * HoursPerDay,
	}
}
