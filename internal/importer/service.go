package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/estimate/form"
)

// Creator is the session store operation imports go through, so imported
// rows reach the local list like any other create.
type Creator interface {
	Create(ctx context.Context, in estimate.Input) (estimate.Record, error)
}

type RowError struct {
	Line int
	Err  error
}

type Result struct {
	Created []estimate.Record
	Failed  []RowError
}

type Service struct {
	parser  *Parser
	creator Creator
	now     func() time.Time
}

func NewService(creator Creator) *Service {
	return &Service{
		parser:  NewParser(),
		creator: creator,
		now:     time.Now,
	}
}

// Import parses r and creates every valid row in file order. Invalid rows
// are reported in Result.Failed; a store failure stops the import.
func (s *Service) Import(ctx context.Context, r io.Reader) (Result, error) {
	rows, err := s.parser.Parse(r)
	if err != nil {
		return Result{}, err
	}

	var res Result

	for _, row := range rows {
		in, err := row.Form.Input(s.now())
		if err != nil {
			res.Failed = append(res.Failed, RowError{Line: row.Line, Err: err})
			continue
		}

		rec, err := s.creator.Create(ctx, in)
		if err != nil {
			var serr *estimate.StoreError
			if errors.As(err, &serr) {
				return res, fmt.Errorf("importing line %d: %w", row.Line, err)
			}

			res.Failed = append(res.Failed, RowError{Line: row.Line, Err: err})

			continue
		}

		res.Created = append(res.Created, rec)
	}

	slog.Info("imported estimates", "created", len(res.Created), "failed", len(res.Failed))

	return res, nil
}

// SampleForms returns three demo estimates dated today: a returned Initial,
// a returned Final awaiting billing and an open Final.
func SampleForms(today time.Time) []form.Form {
	day := datewindow.FormatDate(today)

	return []form.Form{
		{
			EstimateType: string(estimate.TypeInitial),
			ClaimNumber:  "1001",
			ClientName:   "Acme Co",
			TaskNumber:   "T-01",
			DateReceived: day,
			TimeReceived: "09:00",
			DateReturned: day,
			TimeReturned: "11:00",
			Status:       string(estimate.StatusDone),
		},
		{
			EstimateType: string(estimate.TypeFinal),
			ClaimNumber:  "1002",
			ClientName:   "Globex",
			TaskNumber:   "T-02",
			DateReceived: day,
			TimeReceived: "10:00",
			DateReturned: day,
			TimeReturned: "14:00",
			FinalAmount:  "$250.00",
			Status:       string(estimate.StatusDone),
		},
		{
			EstimateType: string(estimate.TypeFinal),
			ClaimNumber:  "1003",
			ClientName:   "Initech",
			TaskNumber:   "T-03",
			DateReceived: day,
			TimeReceived: "08:00",
			FinalAmount:  "$100.00",
			Status:       string(estimate.StatusInProgress),
		},
	}
}

// Seed creates the sample estimates. It stops at the first failure.
func (s *Service) Seed(ctx context.Context) ([]estimate.Record, error) {
	now := s.now()

	var out []estimate.Record

	for _, f := range SampleForms(now) {
		in, err := f.Input(now)
		if err != nil {
			return out, fmt.Errorf("building sample %s: %w", f.ClaimNumber, err)
		}

		rec, err := s.creator.Create(ctx, in)
		if err != nil {
			return out, fmt.Errorf("seeding sample %s: %w", f.ClaimNumber, err)
		}

		out = append(out, rec)
	}

	return out, nil
}
