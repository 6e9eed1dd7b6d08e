package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=estimate
type Repository interface {
	List(ctx context.Context) ([]Row, error)
	Insert(ctx context.Context, row Row) (Row, error)
	Update(ctx context.Context, id string, columns map[string]any) (Row, error)
	Delete(ctx context.Context, id string) error

	ListUnbilledFinal(ctx context.Context) ([]Row, error)
	ListByStatus(ctx context.Context, status Status) ([]Row, error)
	ListByReturnedRange(ctx context.Context, start, end string) ([]Row, error)
}

// StoreError is a failed datastore call. The service keeps the last one as
// its error state.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s estimate: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Service holds the session's list of estimates, newest first. Mutations
// wait for the datastore and then reconcile the returned row into the list;
// change notifications are reconciled through Apply.
type Service struct {
	repo    Repository
	ids     IDGenerator
	now     func() time.Time
	metrics *metrics

	mu      sync.RWMutex
	records []Record
	loads   int
	err     error

	// changes made while a load is in flight, replayed onto its result
	pending []func([]Record) []Record
}

type Option func(*Service)

// WithIDGenerator replaces the random id source.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *Service) { s.ids = ids }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		ids:     RandomIDs{},
		now:     time.Now,
		metrics: newMetrics(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Records returns a copy of the current list.
func (s *Service) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.records)
}

// Find returns the local record with the given id.
func (s *Service) Find(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.records, id)
	if i < 0 {
		return Record{}, false
	}

	return s.records[i], true
}

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loads > 0
}

// Err returns the error of the last failed operation, cleared when the next
// operation starts.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.err
}

// Load replaces the list with the datastore's contents. Changes applied
// while the list is being fetched are replayed onto it. On failure the
// existing list is kept.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loads++
	s.err = nil
	s.mu.Unlock()

	s.metrics.reloads.Inc()

	rows, err := s.repo.List(ctx)
	if err != nil {
		s.mu.Lock()
		s.endLoad()
		s.mu.Unlock()

		return s.fail("load", err)
	}

	records := FromRows(rows)

	s.mu.Lock()
	for _, change := range s.pending {
		records = change(records)
	}
	s.records = records
	s.endLoad()
	n := len(s.records)
	s.mu.Unlock()

	s.metrics.records.Set(float64(n))

	return nil
}

// endLoad must be called with mu held.
func (s *Service) endLoad() {
	s.loads--
	if s.loads == 0 {
		s.pending = nil
	}
}

// change applies fn to the list, and again to any load still in flight.
// It must be called with mu held.
func (s *Service) change(fn func([]Record) []Record) {
	s.records = fn(s.records)

	if s.loads > 0 {
		s.pending = append(s.pending, fn)
	}
}

// Create persists in and adds the stored record to the front of the list.
func (s *Service) Create(ctx context.Context, in Input) (Record, error) {
	s.clearErr()

	rec, err := in.Record()
	if err != nil {
		return Record{}, err
	}

	saved, err := s.repo.Insert(ctx, ToRow(rec, s.ids, s.now))
	if err != nil {
		return Record{}, s.fail("create", err)
	}

	out := FromRow(saved)
	s.replace(out)

	return out, nil
}

// Update persists the fields in p for id and replaces the local record with
// the full stored row.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Record, error) {
	s.clearErr()

	var current *Record
	if rec, ok := s.Find(id); ok {
		current = &rec
	}

	cols, err := p.normalize(current).Columns()
	if err != nil {
		return Record{}, err
	}

	if len(cols) == 0 {
		return Record{}, ErrEmptyPatch
	}

	row, err := s.repo.Update(ctx, id, cols)
	if err != nil {
		return Record{}, s.fail("update", err)
	}

	out := FromRow(row)
	s.replace(out)

	return out, nil
}

// Remove deletes id remotely and then locally.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.clearErr()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("delete", err)
	}

	s.mu.Lock()
	s.change(func(rs []Record) []Record { return without(rs, id) })
	n := len(s.records)
	s.mu.Unlock()

	s.metrics.records.Set(float64(n))

	return nil
}

// MarkBilled flags a Final estimate as invoiced.
func (s *Service) MarkBilled(ctx context.Context, id string) (Record, error) {
	return s.Update(ctx, id, Patch{Billed: new(true)})
}

// SetStatus changes the status. Moving to Done stamps the returned date and
// time with the current local time in the same update.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (Record, error) {
	p := Patch{Status: &status}

	if status == StatusDone {
		now := s.now()
		p.DateReturned = new(datewindow.FormatDate(now))
		p.TimeReturned = new(datewindow.FormatTime(now))
	}

	return s.Update(ctx, id, p)
}

// SetFinalAmount stores the amount text and its derived cents together.
func (s *Service) SetFinalAmount(ctx context.Context, id, amount string) (Record, error) {
	return s.Update(ctx, id, Patch{FinalAmount: &amount})
}

// Apply reconciles a change notification into the list, reloading
// everything when the event cannot be applied.
func (s *Service) Apply(ctx context.Context, ev Event) error {
	s.mu.Lock()
	_, reload := Reconcile(s.records, ev)
	if !reload {
		s.change(func(rs []Record) []Record {
			next, _ := Reconcile(rs, ev)
			return next
		})
	}
	n := len(s.records)
	s.mu.Unlock()

	if reload {
		slog.Info("reloading estimates", "event", ev.Kind)
		return s.Load(ctx)
	}

	s.metrics.events.WithLabelValues(string(ev.Kind)).Inc()
	s.metrics.records.Set(float64(n))

	return nil
}

// Watch applies events until ctx ends or events is closed. Failed reloads
// are logged and kept as the error state.
func (s *Service) Watch(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			if err := s.Apply(ctx, ev); err != nil {
				slog.Error("failed to apply change event", "event", ev.Kind, "error", err)
			}
		}
	}
}

// UnbilledFinal queries the datastore for Final estimates awaiting billing.
func (s *Service) UnbilledFinal(ctx context.Context) ([]Record, error) {
	rows, err := s.repo.ListUnbilledFinal(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing unbilled estimates: %w", err)
	}

	return FromRows(rows), nil
}

// ByStatus queries the datastore for estimates in status.
func (s *Service) ByStatus(ctx context.Context, status Status) ([]Record, error) {
	rows, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("listing estimates by status: %w", err)
	}

	return FromRows(rows), nil
}

// ReturnedWithin queries the datastore for estimates returned inside b.
func (s *Service) ReturnedWithin(ctx context.Context, b datewindow.Bounds) ([]Record, error) {
	start := datewindow.FormatDate(b.Start)
	end := datewindow.FormatDate(b.End.AddDate(0, 0, -1))

	rows, err := s.repo.ListByReturnedRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing estimates by returned date: %w", err)
	}

	return FromRows(rows), nil
}

func (s *Service) replace(rec Record) {
	s.mu.Lock()
	s.change(func(rs []Record) []Record { return upsert(rs, rec) })
	n := len(s.records)
	s.mu.Unlock()

	s.metrics.records.Set(float64(n))
}

func (s *Service) clearErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

func (s *Service) fail(op string, err error) error {
	serr := &StoreError{Op: op, Err: err}

	s.mu.Lock()
	s.err = serr
	s.mu.Unlock()

	s.metrics.errors.WithLabelValues(op).Inc()
	slog.Error("estimate store operation failed", "op", op, "error", err)

	return serr
}
