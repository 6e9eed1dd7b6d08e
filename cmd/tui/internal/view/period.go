package view

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
)

var granularities = []datewindow.Granularity{datewindow.Daily, datewindow.Weekly, datewindow.Monthly}

// PeriodChangedMsg is emitted whenever a picker moves.
type PeriodChangedMsg struct {
	ID string
}

// PeriodPicker selects a window by granularity and anchor.
//
//	g      cycle granularity (when Cycle is set)
//	h / ←  previous window
//	l / →  next window
//	t      today
type PeriodPicker struct {
	ID    string
	Cycle bool

	granularity datewindow.Granularity
	anchor      string
	loc         *time.Location
	now         func() time.Time
}

func NewPeriodPicker(id string, g datewindow.Granularity, loc *time.Location) PeriodPicker {
	p := PeriodPicker{ID: id, granularity: g, loc: loc, now: time.Now}
	p.anchor = datewindow.TodayAnchor(g, p.today())

	return p
}

func (p PeriodPicker) today() time.Time {
	return p.now().In(p.loc)
}

func (p PeriodPicker) Granularity() datewindow.Granularity { return p.granularity }

func (p PeriodPicker) Anchor() string { return p.anchor }

func (p PeriodPicker) Ref() time.Time {
	return datewindow.ParseAnchor(p.anchor, p.granularity, p.loc)
}

func (p PeriodPicker) Bounds() datewindow.Bounds {
	return datewindow.BoundsFor(p.granularity, p.Ref())
}

func (p PeriodPicker) Update(msg tea.Msg) (PeriodPicker, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch keyMsg.String() {
	case "g":
		if !p.Cycle {
			return p, nil
		}

		for i, g := range granularities {
			if g == p.granularity {
				p.granularity = granularities[(i+1)%len(granularities)]
				break
			}
		}

		p.anchor = datewindow.TodayAnchor(p.granularity, p.today())
	case "h", "left":
		p.anchor = datewindow.ShiftAnchorIn(p.anchor, p.granularity, -1, p.loc)
	case "l", "right":
		p.anchor = datewindow.ShiftAnchorIn(p.anchor, p.granularity, 1, p.loc)
	case "t":
		p.anchor = datewindow.TodayAnchor(p.granularity, p.today())
	default:
		return p, nil
	}

	id := p.ID

	return p, func() tea.Msg { return PeriodChangedMsg{ID: id} }
}

// Label renders the window, e.g. "weekly 2024-03-10 to 2024-03-16".
func (p PeriodPicker) Label() string {
	b := p.Bounds()
	last := b.End.AddDate(0, 0, -1)

	switch p.granularity {
	case datewindow.Daily:
		return fmt.Sprintf("%s %s", p.granularity, datewindow.FormatDate(b.Start))
	case datewindow.Monthly:
		return fmt.Sprintf("%s %s", p.granularity, datewindow.FormatMonth(b.Start))
	}

	return fmt.Sprintf("%s %s to %s", p.granularity, datewindow.FormatDate(b.Start), datewindow.FormatDate(last))
}
