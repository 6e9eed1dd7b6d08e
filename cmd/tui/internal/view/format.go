package view

import (
	"context"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders the amount column; empty amounts show as a dash.
func FormatAmount(r estimate.Record) string {
	if r.FinalAmount == "" {
		return "-"
	}

	return estimate.FormatUSD(r.FinalAmountCents)
}

func FormatBilled(r estimate.Record) string {
	switch {
	case r.Billed == nil:
		return ""
	case *r.Billed:
		return "yes"
	default:
		return "no"
	}
}

// FormatReturned joins the returned date and time, if any.
func FormatReturned(r estimate.Record) string {
	if r.DateReturned == "" {
		return "-"
	}

	if r.TimeReturned == "" {
		return r.DateReturned
	}

	return r.DateReturned + " " + r.TimeReturned
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
