package estimate

import (
	"time"
)

// Column names of the estimates table.
const (
	ColID               = "id"
	ColEstimateType     = "estimate_type"
	ColClaimNumber      = "claim_number"
	ColClientName       = "client_name"
	ColTaskNumber       = "task_number"
	ColDateReceived     = "date_received"
	ColTimeReceived     = "time_received"
	ColDateReturned     = "date_returned"
	ColTimeReturned     = "time_returned"
	ColFinalAmount      = "final_amount"
	ColFinalAmountCents = "final_amount_cents"
	ColStatus           = "status"
	ColBilled           = "billed"
	ColCreatedAtISO     = "created_at_iso"
)

// Row is the persisted shape of an estimate. The same JSON form is carried
// by change notifications.
type Row struct {
	ID               string    `json:"id"`
	EstimateType     Type      `json:"estimate_type"`
	ClaimNumber      string    `json:"claim_number"`
	ClientName       string    `json:"client_name"`
	TaskNumber       string    `json:"task_number"`
	DateReceived     string    `json:"date_received"`
	TimeReceived     string    `json:"time_received"`
	DateReturned     *string   `json:"date_returned"`
	TimeReturned     *string   `json:"time_returned"`
	FinalAmount      *string   `json:"final_amount"`
	FinalAmountCents int64     `json:"final_amount_cents"`
	Status           Status    `json:"status"`
	Billed           *bool     `json:"billed"`
	CreatedAtISO     time.Time `json:"created_at_iso"`
}

// ToRow encodes r for storage, assigning an id and creation time when r has
// none.
func ToRow(r Record, ids IDGenerator, now func() time.Time) Row {
	id := r.ID
	if id == "" {
		id = ids.NewID()
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}

	return Row{
		ID:               id,
		EstimateType:     r.EstimateType,
		ClaimNumber:      r.ClaimNumber,
		ClientName:       r.ClientName,
		TaskNumber:       r.TaskNumber,
		DateReceived:     r.DateReceived,
		TimeReceived:     r.TimeReceived,
		DateReturned:     nullable(r.DateReturned),
		TimeReturned:     nullable(r.TimeReturned),
		FinalAmount:      nullable(r.FinalAmount),
		FinalAmountCents: r.FinalAmountCents,
		Status:           r.Status,
		Billed:           r.Billed,
		CreatedAtISO:     createdAt,
	}
}

// FromRow decodes a stored row as is.
func FromRow(row Row) Record {
	return Record{
		ID:               row.ID,
		EstimateType:     row.EstimateType,
		ClaimNumber:      row.ClaimNumber,
		ClientName:       row.ClientName,
		TaskNumber:       row.TaskNumber,
		DateReceived:     row.DateReceived,
		TimeReceived:     row.TimeReceived,
		DateReturned:     deref(row.DateReturned),
		TimeReturned:     deref(row.TimeReturned),
		FinalAmount:      deref(row.FinalAmount),
		FinalAmountCents: row.FinalAmountCents,
		Status:           row.Status,
		Billed:           row.Billed,
		CreatedAt:        row.CreatedAtISO,
	}
}

// FromRows decodes a slice of rows preserving order.
func FromRows(rows []Row) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = FromRow(row)
	}

	return records
}

// Columns maps the supplied fields to column values. A FinalAmount always
// brings its derived cents along.
func (p Patch) Columns() (map[string]any, error) {
	cols := make(map[string]any)

	if p.EstimateType != nil {
		cols[ColEstimateType] = string(*p.EstimateType)
	}

	setString(cols, ColClaimNumber, p.ClaimNumber)
	setString(cols, ColClientName, p.ClientName)
	setString(cols, ColTaskNumber, p.TaskNumber)
	setString(cols, ColDateReceived, p.DateReceived)
	setString(cols, ColTimeReceived, p.TimeReceived)
	setNullable(cols, ColDateReturned, p.DateReturned)
	setNullable(cols, ColTimeReturned, p.TimeReturned)

	if p.FinalAmount != nil {
		cents, err := ParseCents(*p.FinalAmount)
		if err != nil {
			return nil, err
		}

		setNullable(cols, ColFinalAmount, p.FinalAmount)
		cols[ColFinalAmountCents] = cents
	}

	if p.Status != nil {
		cols[ColStatus] = string(*p.Status)
	}

	switch {
	case p.clearBilled:
		cols[ColBilled] = nil
	case p.Billed != nil:
		cols[ColBilled] = *p.Billed
	}

	return cols, nil
}

func setString(cols map[string]any, col string, v *string) {
	if v != nil {
		cols[col] = *v
	}
}

func setNullable(cols map[string]any, col string, v *string) {
	if v == nil {
		return
	}

	if *v == "" {
		cols[col] = nil
		return
	}

	cols[col] = *v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
