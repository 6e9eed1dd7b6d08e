package estimate

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("estimate not found")
	ErrEmptyPatch = errors.New("no fields to update")
)

// Type distinguishes first-pass estimates from final ones.
type Type string

const (
	TypeInitial Type = "Initial"
	TypeFinal   Type = "Final"
)

// Status represents the work state of an estimate.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusDone}

// Next cycles through Statuses.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}

	return StatusNotStarted
}

// Open reports whether work on the estimate is still outstanding.
func (s Status) Open() bool {
	return s == StatusNotStarted || s == StatusInProgress
}

// Record is an estimate as held in memory. Empty DateReturned, TimeReturned
// and FinalAmount mean the value is absent. Billed is nil for Initial
// estimates.
type Record struct {
	ID               string
	EstimateType     Type
	ClaimNumber      string
	ClientName       string
	TaskNumber       string
	DateReceived     string // YYYY-MM-DD
	TimeReceived     string // HH:MM
	DateReturned     string
	TimeReturned     string
	FinalAmount      string
	FinalAmountCents int64
	Status           Status
	Billed           *bool
	CreatedAt        time.Time
}

// Input is a fully formed estimate waiting to be persisted. The id is
// generated on create when empty; cents are always derived from FinalAmount.
type Input struct {
	ID           string
	EstimateType Type
	ClaimNumber  string
	ClientName   string
	TaskNumber   string
	DateReceived string
	TimeReceived string
	DateReturned string
	TimeReturned string
	FinalAmount  string
	Status       Status
	Billed       *bool
	CreatedAt    time.Time
}

// Record builds the record to persist: cents from FinalAmount and billed
// normalised to the estimate type.
func (in Input) Record() (Record, error) {
	cents, err := ParseCents(in.FinalAmount)
	if err != nil {
		return Record{}, err
	}

	return Record{
		ID:               in.ID,
		EstimateType:     in.EstimateType,
		ClaimNumber:      in.ClaimNumber,
		ClientName:       in.ClientName,
		TaskNumber:       in.TaskNumber,
		DateReceived:     in.DateReceived,
		TimeReceived:     in.TimeReceived,
		DateReturned:     in.DateReturned,
		TimeReturned:     in.TimeReturned,
		FinalAmount:      in.FinalAmount,
		FinalAmountCents: cents,
		Status:           in.Status,
		Billed:           billedFor(in.EstimateType, in.Billed),
		CreatedAt:        in.CreatedAt,
	}, nil
}

func billedFor(t Type, billed *bool) *bool {
	if t != TypeFinal {
		return nil
	}

	if billed == nil {
		return new(false)
	}

	return new(*billed)
}

// IsBilled reports whether a Final estimate has been invoiced.
func (r Record) IsBilled() bool {
	return r.Billed != nil && *r.Billed
}

// Unbilled reports whether r is a Final estimate still waiting for billing.
func (r Record) Unbilled() bool {
	return r.EstimateType == TypeFinal && r.Billed != nil && !*r.Billed
}

// Patch carries the fields of a partial update. Nil fields are left alone.
// An empty DateReturned, TimeReturned or FinalAmount clears the value.
type Patch struct {
	EstimateType *Type
	ClaimNumber  *string
	ClientName   *string
	TaskNumber   *string
	DateReceived *string
	TimeReceived *string
	DateReturned *string
	TimeReturned *string
	FinalAmount  *string
	Status       *Status
	Billed       *bool

	clearBilled bool
}

// normalize keeps billed consistent with a type change. current is the
// locally known record, when there is one.
func (p Patch) normalize(current *Record) Patch {
	if p.EstimateType == nil {
		return p
	}

	switch *p.EstimateType {
	case TypeInitial:
		p.Billed = nil
		p.clearBilled = true
	case TypeFinal:
		if p.Billed == nil && (current == nil || current.Billed == nil) {
			p.Billed = new(false)
		}
	}

	return p
}
