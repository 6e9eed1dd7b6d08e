// Package report summarises the estimates returned in a period as CSV and
// as plain text lines ready to paste into an invoice email.
package report

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/dashboard"
	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

// Source is the query side of the estimate session.
type Source interface {
	ReturnedWithin(ctx context.Context, b datewindow.Bounds) ([]estimate.Record, error)
}

type Report struct {
	Granularity datewindow.Granularity
	Anchor      string
	Bounds      datewindow.Bounds
	Items       []estimate.Record
	Counts      dashboard.Counts
	TotalCents  int64
	Unbilled    int
}

type Service struct {
	source Source
	loc    *time.Location
}

func NewService(source Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}

	return &Service{source: source, loc: loc}
}

// Build collects the estimates returned in the g-window around anchor.
func (s *Service) Build(ctx context.Context, g datewindow.Granularity, anchor string) (Report, error) {
	ref := datewindow.ParseAnchor(anchor, g, s.loc)
	b := datewindow.BoundsFor(g, ref)

	items, err := s.source.ReturnedWithin(ctx, b)
	if err != nil {
		return Report{}, fmt.Errorf("building report: %w", err)
	}

	rep := Report{
		Granularity: g,
		Anchor:      anchor,
		Bounds:      b,
		Items:       items,
		Counts:      dashboard.CountsInWindow(items, g, ref),
	}

	for _, it := range items {
		rep.TotalCents += it.FinalAmountCents

		if it.Unbilled() {
			rep.Unbilled++
		}
	}

	return rep, nil
}

var csvHeader = []string{
	"Type", "Claim", "Client", "Task", "Date Received", "Time Received",
	"Date Returned", "Time Returned", "Amount", "Status", "Billed",
}

// WriteCSV writes items with the same header the importer reads.
func WriteCSV(w io.Writer, items []estimate.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, it := range items {
		billed := ""
		if it.Billed != nil {
			billed = strconv.FormatBool(*it.Billed)
		}

		if err := cw.Write([]string{
			string(it.EstimateType), it.ClaimNumber, it.ClientName, it.TaskNumber,
			it.DateReceived, it.TimeReceived, it.DateReturned, it.TimeReturned,
			it.FinalAmount, string(it.Status), billed,
		}); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// SummaryLines renders one line per item:
//
//	* 2024-03-01 | 1002 | Globex | Final | $250.00 | Unbilled
func SummaryLines(items []estimate.Record) string {
	var sb strings.Builder

	for _, it := range items {
		amount := "-"
		if it.FinalAmount != "" {
			amount = estimate.FormatUSD(it.FinalAmountCents)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s | %s | %s\n",
			it.DateReturned, it.ClaimNumber, it.ClientName, it.EstimateType, amount, billing(it))
	}

	return sb.String()
}

func billing(it estimate.Record) string {
	switch {
	case it.Billed == nil:
		return "n/a"
	case *it.Billed:
		return "Billed"
	default:
		return "Unbilled"
	}
}

// WriteArchive zips the CSV and summary of rep into w.
func WriteArchive(w io.Writer, rep Report) error {
	zw := zip.NewWriter(w)

	f, err := zw.Create("estimates.csv")
	if err != nil {
		return fmt.Errorf("creating csv entry: %w", err)
	}

	if err := WriteCSV(f, rep.Items); err != nil {
		return err
	}

	f, err = zw.Create("summary.txt")
	if err != nil {
		return fmt.Errorf("creating summary entry: %w", err)
	}

	if _, err := io.WriteString(f, SummaryLines(rep.Items)); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}

	return nil
}
