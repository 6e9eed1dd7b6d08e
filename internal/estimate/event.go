package estimate

import (
	"encoding/json"
	"fmt"
)

// EventKind is the operation a change notification reports.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
	// EventReload asks the session to refetch everything, e.g. after the
	// stream lost messages.
	EventReload EventKind = "RELOAD"
)

// Event is a row-level change notification from the estimates table.
type Event struct {
	Kind EventKind `json:"eventType"`
	New  *Row      `json:"new,omitempty"`
	Old  *Row      `json:"old,omitempty"`
}

// DecodeEvent parses a notification payload. A payload that cannot be
// decoded yields a reload event alongside the error.
func DecodeEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{Kind: EventReload}, fmt.Errorf("decoding change event: %w", err)
	}

	return ev, nil
}

// Reconcile applies ev to records and returns the new list. The input slice
// is never modified. reload is true when ev cannot be applied and the caller
// must refetch the full list instead.
//
// Insert and update replace a record with the same id in place, or prepend
// it when absent, so a change that already arrived through a direct call is
// applied again without duplicating it.
func Reconcile(records []Record, ev Event) (next []Record, reload bool) {
	switch ev.Kind {
	case EventInsert, EventUpdate:
		if ev.New == nil || ev.New.ID == "" {
			return records, true
		}

		return upsert(records, FromRow(*ev.New)), false

	case EventDelete:
		if ev.Old == nil || ev.Old.ID == "" {
			return records, true
		}

		return without(records, ev.Old.ID), false
	}

	return records, true
}

func indexOf(records []Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}

	return -1
}

func upsert(records []Record, rec Record) []Record {
	if i := indexOf(records, rec.ID); i >= 0 {
		next := make([]Record, len(records))
		copy(next, records)
		next[i] = rec

		return next
	}

	next := make([]Record, 0, len(records)+1)
	next = append(next, rec)

	return append(next, records...)
}

func without(records []Record, id string) []Record {
	i := indexOf(records, id)
	if i < 0 {
		return records
	}

	next := make([]Record, 0, len(records)-1)
	next = append(next, records[:i]...)

	return append(next, records[i+1:]...)
}
