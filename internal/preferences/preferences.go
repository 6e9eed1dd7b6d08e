// Package preferences keeps presentation settings (accent colour, welcome
// screen, daily quote rotation) in a key/value table.
package preferences

import (
	"errors"
	"slices"
)

var (
	ErrNotFound      = errors.New("preference not found")
	ErrUnknownKey    = errors.New("unknown preference key")
	ErrInvalidAccent = errors.New("invalid accent")
)

type Key string

const (
	KeyAccent           Key = "accent"
	KeyWelcomeDismissed Key = "welcome_dismissed"
	KeyQuoteHistory     Key = "quote_history"
	KeyQuoteByDate      Key = "quote_by_date"
)

var Keys = []Key{KeyAccent, KeyWelcomeDismissed, KeyQuoteHistory, KeyQuoteByDate}

func (k Key) Valid() bool {
	return slices.Contains(Keys, k)
}

type Accent string

const (
	AccentBlue   Accent = "blue"
	AccentGreen  Accent = "green"
	AccentPurple Accent = "purple"
)

var Accents = []Accent{AccentBlue, AccentGreen, AccentPurple}

const DefaultAccent = AccentBlue

func ParseAccent(s string) (Accent, error) {
	a := Accent(s)
	if !slices.Contains(Accents, a) {
		return "", ErrInvalidAccent
	}

	return a, nil
}

var Quotes = []string{
	"Small, steady outputs beat bursts.",
	"Focus is a force multiplier.",
	"Ship, learn, refine, repeat.",
	"Clarity creates speed.",
	"Progress loves constraints.",
	"Schedules create momentum.",
	"Depth today, breadth tomorrow.",
	"Energy is a resource; budget it.",
	"Fewer tasks, fuller attention.",
	"Quality is quiet consistency.",
	"Start. Then keep starting.",
	"Momentum makes decisions easier.",
	"Measure what matters daily.",
	"Protect your prime hours.",
	"Friction down, focus up.",
	"Work simple. Think clearly.",
	"Tiny wins compound.",
	"Make the next 30 minutes count.",
	"Default to action, not perfection.",
	"Constraints fuel creativity.",
}
