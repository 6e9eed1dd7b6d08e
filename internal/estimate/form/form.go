// Package form validates estimates entered by hand before they reach the
// session store.
package form

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

const (
	MsgRequired            = "Required"
	MsgDateReturnedPair    = "Required when time returned is set"
	MsgTimeReturnedPair    = "Required when date returned is set"
	MsgReturnedBeforeRecvd = "Returned before received"
	MsgInvalidAmount       = "Invalid amount"
	MsgInvalidDate         = "Invalid date"
	MsgInvalidTime         = "Invalid time"
	MsgInvalidValue        = "Invalid value"
)

// Form holds estimate fields as typed by the user.
type Form struct {
	EstimateType string `json:"estimate_type" validate:"required,oneof=Initial Final"`
	ClaimNumber  string `json:"claim_number" validate:"required"`
	ClientName   string `json:"client_name" validate:"required"`
	TaskNumber   string `json:"task_number" validate:"required"`
	DateReceived string `json:"date_received" validate:"required,datetime=2006-01-02"`
	TimeReceived string `json:"time_received" validate:"required,datetime=15:04"`
	DateReturned string `json:"date_returned" validate:"required_with=TimeReturned,omitempty,datetime=2006-01-02"`
	TimeReturned string `json:"time_returned" validate:"required_with=DateReturned,omitempty,datetime=15:04"`
	FinalAmount  string `json:"final_amount"`
	Status       string `json:"status" validate:"omitempty,oneof='Not Started' 'In Progress' 'Done'"`
}

// New returns an empty form with the defaults of a fresh entry.
func New() Form {
	return Form{
		EstimateType: string(estimate.TypeInitial),
		Status:       string(estimate.StatusNotStarted),
	}
}

// ValidationError maps form field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, name+": "+e.Fields[name])
	}

	return "invalid estimate: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Validate reports every problem with f as a *ValidationError.
func (f Form) Validate() error {
	f = f.trimmed()
	fields := make(map[string]string)

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating estimate: %w", err)
		}

		for _, fe := range verrs {
			fields[fe.Field()] = message(fe)
		}
	}

	if f.DateReturned != "" && f.TimeReturned != "" && fields["date_returned"] == "" && fields["time_returned"] == "" {
		received, rerr := datewindow.Instant(f.DateReceived, f.TimeReceived, time.UTC)
		returned, terr := datewindow.Instant(f.DateReturned, f.TimeReturned, time.UTC)

		if rerr == nil && terr == nil && returned.Before(received) {
			fields["date_returned"] = MsgReturnedBeforeRecvd
			fields["time_returned"] = MsgReturnedBeforeRecvd
		}
	}

	if f.FinalAmount != "" {
		if _, err := estimate.ParseCents(f.FinalAmount); err != nil {
			fields["final_amount"] = MsgInvalidAmount
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "required_with":
		if fe.Field() == "date_returned" {
			return MsgDateReturnedPair
		}

		return MsgTimeReturnedPair
	case "datetime":
		if fe.Param() == "15:04" {
			return MsgInvalidTime
		}

		return MsgInvalidDate
	default:
		return MsgInvalidValue
	}
}

func (f Form) trimmed() Form {
	f.EstimateType = strings.TrimSpace(f.EstimateType)
	f.ClaimNumber = strings.TrimSpace(f.ClaimNumber)
	f.ClientName = strings.TrimSpace(f.ClientName)
	f.TaskNumber = strings.TrimSpace(f.TaskNumber)
	f.DateReceived = strings.TrimSpace(f.DateReceived)
	f.TimeReceived = strings.TrimSpace(f.TimeReceived)
	f.DateReturned = strings.TrimSpace(f.DateReturned)
	f.TimeReturned = strings.TrimSpace(f.TimeReturned)
	f.FinalAmount = strings.TrimSpace(f.FinalAmount)
	f.Status = strings.TrimSpace(f.Status)

	return f
}

// Input validates f and builds the estimate to create. Final estimates start
// unbilled.
func (f Form) Input(now time.Time) (estimate.Input, error) {
	if err := f.Validate(); err != nil {
		return estimate.Input{}, err
	}

	f = f.trimmed()

	status := estimate.Status(f.Status)
	if status == "" {
		status = estimate.StatusNotStarted
	}

	in := estimate.Input{
		EstimateType: estimate.Type(f.EstimateType),
		ClaimNumber:  f.ClaimNumber,
		ClientName:   f.ClientName,
		TaskNumber:   f.TaskNumber,
		DateReceived: f.DateReceived,
		TimeReceived: f.TimeReceived,
		DateReturned: f.DateReturned,
		TimeReturned: f.TimeReturned,
		FinalAmount:  f.FinalAmount,
		Status:       status,
		CreatedAt:    now,
	}

	if in.EstimateType == estimate.TypeFinal {
		in.Billed = new(false)
	}

	return in, nil
}

// FormatAmountOnBlur rewrites FinalAmount as dollars when it parses.
func (f *Form) FormatAmountOnBlur() {
	if formatted, ok := estimate.FormatAmountText(strings.TrimSpace(f.FinalAmount)); ok {
		f.FinalAmount = formatted
	}
}
