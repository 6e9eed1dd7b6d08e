package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanEstimate reads a row in selectColumns order.
func scanEstimate(s scanner) (estimate.Row, error) {
	var (
		row                                     estimate.Row
		typeStr, statusStr                      string
		dateReturned, timeReturned, finalAmount sql.NullString
		billed                                  sql.NullBool
	)

	if err := s.Scan(
		&row.ID, &typeStr, &row.ClaimNumber, &row.ClientName, &row.TaskNumber,
		&row.DateReceived, &row.TimeReceived, &dateReturned, &timeReturned,
		&finalAmount, &row.FinalAmountCents, &statusStr, &billed, &row.CreatedAtISO,
	); err != nil {
		return estimate.Row{}, err
	}

	row.EstimateType = estimate.Type(typeStr)
	row.Status = estimate.Status(statusStr)
	row.DateReturned = nullString(dateReturned)
	row.TimeReturned = nullString(timeReturned)
	row.FinalAmount = nullString(finalAmount)

	if billed.Valid {
		row.Billed = new(billed.Bool)
	}

	return row, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}

	return new(ns.String)
}

// Dates and times are rendered as text so rows match the change payloads.
const selectColumns = `
	id, estimate_type, claim_number, client_name, task_number,
	to_char(date_received, 'YYYY-MM-DD'), to_char(time_received, 'HH24:MI'),
	to_char(date_returned, 'YYYY-MM-DD'), to_char(time_returned, 'HH24:MI'),
	final_amount, final_amount_cents, status, billed, created_at_iso
`

// columnCasts lists the columns Update may set and the placeholder cast each
// one needs.
var columnCasts = map[string]string{
	estimate.ColEstimateType:     "",
	estimate.ColClaimNumber:      "",
	estimate.ColClientName:       "",
	estimate.ColTaskNumber:       "",
	estimate.ColDateReceived:     "::text::date",
	estimate.ColTimeReceived:     "::text::time",
	estimate.ColDateReturned:     "::text::date",
	estimate.ColTimeReturned:     "::text::time",
	estimate.ColFinalAmount:      "",
	estimate.ColFinalAmountCents: "",
	estimate.ColStatus:           "",
	estimate.ColBilled:           "::boolean",
}

func (s *Store) List(ctx context.Context) ([]estimate.Row, error) {
	query := `SELECT ` + selectColumns + `
		FROM estimates
		ORDER BY created_at_iso DESC`

	return s.query(ctx, "listing estimates", query)
}

func (s *Store) ListUnbilledFinal(ctx context.Context) ([]estimate.Row, error) {
	query := `SELECT ` + selectColumns + `
		FROM estimates
		WHERE estimate_type = $1 AND billed = FALSE
		ORDER BY created_at_iso DESC`

	return s.query(ctx, "listing unbilled estimates", query, estimate.TypeFinal)
}

func (s *Store) ListByStatus(ctx context.Context, status estimate.Status) ([]estimate.Row, error) {
	query := `SELECT ` + selectColumns + `
		FROM estimates
		WHERE status = $1
		ORDER BY created_at_iso DESC`

	return s.query(ctx, "listing estimates by status", query, status)
}

// ListByReturnedRange returns estimates returned between start and end
// inclusive, both YYYY-MM-DD.
func (s *Store) ListByReturnedRange(ctx context.Context, start, end string) ([]estimate.Row, error) {
	query := `SELECT ` + selectColumns + `
		FROM estimates
		WHERE date_returned >= $1::text::date AND date_returned <= $2::text::date
		ORDER BY date_returned DESC, time_returned DESC`

	return s.query(ctx, "listing estimates by returned date", query, start, end)
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]estimate.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []estimate.Row

	for rows.Next() {
		row, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning estimate: %w", err)
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating estimate rows: %w", err)
	}

	return out, nil
}

func (s *Store) Insert(ctx context.Context, row estimate.Row) (estimate.Row, error) {
	query := `
		INSERT INTO estimates (
			id, estimate_type, claim_number, client_name, task_number,
			date_received, time_received, date_returned, time_returned,
			final_amount, final_amount_cents, status, billed, created_at_iso
		)
		VALUES ($1, $2, $3, $4, $5, $6::text::date, $7::text::time, $8::text::date, $9::text::time,
			$10, $11, $12, $13, $14)
		RETURNING ` + selectColumns

	saved, err := scanEstimate(s.db.QueryRowContext(ctx, query,
		row.ID,
		row.EstimateType,
		row.ClaimNumber,
		row.ClientName,
		row.TaskNumber,
		row.DateReceived,
		row.TimeReceived,
		row.DateReturned,
		row.TimeReturned,
		row.FinalAmount,
		row.FinalAmountCents,
		row.Status,
		row.Billed,
		row.CreatedAtISO,
	))
	if err != nil {
		return estimate.Row{}, fmt.Errorf("inserting estimate: %w", err)
	}

	return saved, nil
}

// Update sets the given columns on one estimate and returns the full row.
func (s *Store) Update(ctx context.Context, id string, columns map[string]any) (estimate.Row, error) {
	query, args, err := buildUpdate(id, columns)
	if err != nil {
		return estimate.Row{}, err
	}

	row, err := scanEstimate(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return estimate.Row{}, estimate.ErrNotFound
		}

		return estimate.Row{}, fmt.Errorf("updating estimate: %w", err)
	}

	return row, nil
}

// buildUpdate renders the UPDATE statement with columns in sorted order.
func buildUpdate(id string, columns map[string]any) (string, []any, error) {
	if len(columns) == 0 {
		return "", nil, estimate.ErrEmptyPatch
	}

	names := slices.Sorted(maps.Keys(columns))

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)

	for i, name := range names {
		cast, ok := columnCasts[name]
		if !ok {
			return "", nil, fmt.Errorf("updating estimate: unknown column %q", name)
		}

		sets[i] = fmt.Sprintf("%s = $%d%s", name, i+1, cast)
		args = append(args, columns[name])
	}

	args = append(args, id)

	query := fmt.Sprintf("UPDATE estimates SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), selectColumns)

	return query, args, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting estimate: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting estimate: %w", err)
	}

	if n == 0 {
		return estimate.ErrNotFound
	}

	return nil
}
