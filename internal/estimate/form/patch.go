package form

import (
	"errors"
	"strings"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

// FromRecord fills a form with the stored values of rec.
func FromRecord(rec estimate.Record) Form {
	return Form{
		EstimateType: string(rec.EstimateType),
		ClaimNumber:  rec.ClaimNumber,
		ClientName:   rec.ClientName,
		TaskNumber:   rec.TaskNumber,
		DateReceived: rec.DateReceived,
		TimeReceived: rec.TimeReceived,
		DateReturned: rec.DateReturned,
		TimeReturned: rec.TimeReturned,
		FinalAmount:  rec.FinalAmount,
		Status:       string(rec.Status),
	}
}

// Merge overlays the fields set in p.
func (f Form) Merge(p estimate.Patch) Form {
	if p.EstimateType != nil {
		f.EstimateType = string(*p.EstimateType)
	}

	if p.Status != nil {
		f.Status = string(*p.Status)
	}

	overlay(&f.ClaimNumber, p.ClaimNumber)
	overlay(&f.ClientName, p.ClientName)
	overlay(&f.TaskNumber, p.TaskNumber)
	overlay(&f.DateReceived, p.DateReceived)
	overlay(&f.TimeReceived, p.TimeReceived)
	overlay(&f.DateReturned, p.DateReturned)
	overlay(&f.TimeReturned, p.TimeReturned)
	overlay(&f.FinalAmount, p.FinalAmount)

	return f
}

func overlay(dst, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ValidatePatch validates the record current would become once p is applied.
// Unlike a new entry, a patch may not blank the status.
func ValidatePatch(current estimate.Record, p estimate.Patch) error {
	err := FromRecord(current).Merge(p).Validate()

	if p.Status == nil || strings.TrimSpace(string(*p.Status)) != "" {
		return err
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.Fields["status"] = MsgRequired
		return verr
	}

	if err != nil {
		return err
	}

	return &ValidationError{Fields: map[string]string{"status": MsgRequired}}
}
