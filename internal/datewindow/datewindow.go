// Package datewindow computes day, week and month windows around a reference
// date and tests whether a stored date string falls inside one.
//
// All windows are half-open [Start, End) and computed in the location of the
// reference time. Weeks start on Sunday.
package datewindow

import (
	"fmt"
	"time"
)

// Granularity selects the size of a window.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

const (
	dateLayout  = time.DateOnly
	monthLayout = "2006-01"
	timeLayout  = "15:04"
)

// ParseGranularity maps a query value to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Daily, Weekly, Monthly:
		return g, nil
	}

	return "", fmt.Errorf("unknown granularity %q", s)
}

// Bounds is a half-open time interval.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in [Start, End).
func (b Bounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayBounds returns midnight of ref's calendar day to the next midnight.
func DayBounds(ref time.Time) Bounds {
	start := startOfDay(clamp(ref))
	return Bounds{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekBounds returns the Sunday-started week containing ref.
func WeekBounds(ref time.Time) Bounds {
	day := startOfDay(clamp(ref))
	start := day.AddDate(0, 0, -int(day.Weekday()))

	return Bounds{Start: start, End: start.AddDate(0, 0, 7)}
}

// MonthBounds returns the first of ref's month to the first of the next month.
func MonthBounds(ref time.Time) Bounds {
	ref = clamp(ref)
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())

	return Bounds{Start: start, End: start.AddDate(0, 1, 0)}
}

// BoundsFor dispatches on g. Unknown granularities fall back to monthly.
func BoundsFor(g Granularity, ref time.Time) Bounds {
	switch g {
	case Daily:
		return DayBounds(ref)
	case Weekly:
		return WeekBounds(ref)
	default:
		return MonthBounds(ref)
	}
}

// IsWithin reports whether dateStr falls inside the g-window around ref.
// Empty or unparseable dates never match. A zero ref means now.
func IsWithin(dateStr string, g Granularity, ref time.Time) bool {
	ref = clamp(ref)

	d, ok := parseDate(dateStr, ref.Location())
	if !ok {
		return false
	}

	return BoundsFor(g, ref).Contains(d)
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if d, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return d, true
	}

	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d.In(loc), true
	}

	return time.Time{}, false
}

func clamp(ref time.Time) time.Time {
	if ref.IsZero() {
		return time.Now()
	}

	return ref
}

// ParseAnchor turns an anchor value into a reference time in loc. Monthly
// anchors are "YYYY-MM" (a full date is accepted) and resolve to the 1st;
// daily and weekly anchors are "YYYY-MM-DD". Invalid anchors resolve to today.
func ParseAnchor(anchor string, g Granularity, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}

	if g == Monthly {
		if t, err := time.ParseInLocation(monthLayout, anchor, loc); err == nil {
			return t
		}

		if t, err := time.ParseInLocation(dateLayout, anchor, loc); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		}

		now := time.Now().In(loc)

		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	}

	if t, err := time.ParseInLocation(dateLayout, anchor, loc); err == nil {
		return t
	}

	return startOfDay(time.Now().In(loc))
}

// ShiftAnchor moves an anchor one step in direction (negative is back).
// Monthly steps go from the 1st so short months never roll over.
func ShiftAnchor(anchor string, g Granularity, direction int) string {
	return ShiftAnchorIn(anchor, g, direction, time.Local)
}

// ShiftAnchorIn is ShiftAnchor with an explicit location for invalid anchors.
func ShiftAnchorIn(anchor string, g Granularity, direction int, loc *time.Location) string {
	step := sign(direction)
	ref := ParseAnchor(anchor, g, loc)

	switch g {
	case Daily:
		return FormatDate(ref.AddDate(0, 0, step))
	case Weekly:
		return FormatDate(ref.AddDate(0, 0, 7*step))
	default:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		return FormatMonth(first.AddDate(0, step, 0))
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}

	return 0
}

// TodayAnchor returns the anchor value for now at granularity g.
func TodayAnchor(g Granularity, now time.Time) string {
	if g == Monthly {
		return FormatMonth(now)
	}

	return FormatDate(now)
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatMonth formats t as YYYY-MM.
func FormatMonth(t time.Time) string {
	return t.Format(monthLayout)
}

// FormatTime formats t as HH:MM.
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// Instant combines a YYYY-MM-DD date and an HH:MM time in loc.
func Instant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	t, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing instant %q %q: %w", date, clock, err)
	}

	return t, nil
}
