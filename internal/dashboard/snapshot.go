package dashboard

import (
	"time"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

// Anchors are the user's selections on every panel. Day, Week and CalcWeek
// are YYYY-MM-DD; Month is YYYY-MM; Counter follows Granularity.
type Anchors struct {
	Granularity   datewindow.Granularity
	Counter       string
	Day           string
	Week          string
	Month         string
	CalcWeek      string
	OvertimeHours float64
	PTOHours      float64
}

// DefaultAnchors points every panel at today with a daily counter.
func DefaultAnchors(now time.Time) Anchors {
	today := datewindow.FormatDate(now)

	return Anchors{
		Granularity: datewindow.Daily,
		Counter:     today,
		Day:         today,
		Week:        today,
		Month:       datewindow.FormatMonth(now),
		CalcWeek:    today,
	}
}

type Panel struct {
	Anchor  string
	Start   time.Time
	End     time.Time
	Records []estimate.Record
}

type Snapshot struct {
	Anchors      Anchors
	Counts       Counts
	Unbilled     []estimate.Record
	Open         []estimate.Record
	Day          Panel
	Week         Panel
	Month        Panel
	Productivity Productivity
}

// Build computes every panel for records under a. Anchors are resolved in
// loc; invalid ones fall back to today.
func Build(records []estimate.Record, a Anchors, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.Local
	}

	counterRef := datewindow.ParseAnchor(a.Counter, a.Granularity, loc)
	calcRef := datewindow.ParseAnchor(a.CalcWeek, datewindow.Weekly, loc)

	return Snapshot{
		Anchors:      a,
		Counts:       CountsInWindow(records, a.Granularity, counterRef),
		Unbilled:     UnbilledFinalQueue(records),
		Open:         OpenWorkQueue(records),
		Day:          panel(records, datewindow.Daily, a.Day, loc),
		Week:         panel(records, datewindow.Weekly, a.Week, loc),
		Month:        panel(records, datewindow.Monthly, a.Month, loc),
		Productivity: ProductivityMetrics(CountsInWindow(records, datewindow.Weekly, calcRef).Total, a.OvertimeHours, a.PTOHours),
	}
}

func panel(records []estimate.Record, g datewindow.Granularity, anchor string, loc *time.Location) Panel {
	ref := datewindow.ParseAnchor(anchor, g, loc)
	b := datewindow.BoundsFor(g, ref)

	return Panel{
		Anchor:  anchor,
		Start:   b.Start,
		End:     b.End,
		Records: WindowQueue(records, g, ref),
	}
}
