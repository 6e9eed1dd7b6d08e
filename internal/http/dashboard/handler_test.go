package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

type staticRecords []estimate.Record

func (s staticRecords) Records() []estimate.Record { return s }

func newTestRouter(records []estimate.Record) http.Handler {
	h := NewHandler(staticRecords(records), time.UTC)
	h.now = func() time.Time { return time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	h.Routes(r)

	return r
}

func TestHandler_Snapshot(t *testing.T) {
	records := []estimate.Record{
		{ID: "a", EstimateType: estimate.TypeFinal, DateReturned: "2024-03-13", Status: estimate.StatusDone, Billed: new(false)},
		{ID: "b", EstimateType: estimate.TypeInitial, DateReturned: "2024-03-11", Status: estimate.StatusDone},
		{ID: "c", EstimateType: estimate.TypeInitial, Status: estimate.StatusInProgress},
	}

	req := httptest.NewRequest(http.MethodGet, "/?granularity=weekly&overtime=8&pto=8", nil)
	rec := httptest.NewRecorder()
	newTestRouter(records).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp snapshotResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "2024-03-13", resp.Counter)
	assert.Equal(t, countsResponse{Initial: 1, Final: 1, Total: 2}, resp.Counts)
	require.Len(t, resp.Unbilled, 1)
	assert.Equal(t, "a", resp.Unbilled[0].ID)
	require.Len(t, resp.Open, 1)
	assert.Equal(t, "c", resp.Open[0].ID)
	assert.Equal(t, "2024-03-10", resp.Week.StartDate)
	assert.Equal(t, "2024-03-16", resp.Week.EndDate)
	assert.Len(t, resp.Day.Estimates, 1)
	assert.Equal(t, 2, resp.Productivity.WeeklyCount)
	assert.InDelta(t, 40.0, resp.Productivity.EffectiveHours, 1e-9)
}

func TestHandler_Snapshot_BadParams(t *testing.T) {
	for _, q := range []string{"granularity=yearly", "overtime=lots"} {
		t.Run(q, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+q, nil)
			rec := httptest.NewRecorder()
			newTestRouter(nil).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Shift(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{query: "granularity=daily&anchor=2024-03-01&direction=-1", want: "2024-02-29"},
		{query: "granularity=weekly&anchor=2024-03-01&direction=1", want: "2024-03-08"},
		{query: "granularity=monthly&anchor=2024-12&direction=1", want: "2025-01"},
		{query: "granularity=monthly&direction=0", want: "2024-03"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/shift?"+tt.query, nil)
			rec := httptest.NewRecorder()
			newTestRouter(nil).ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)

			var resp shiftResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.want, resp.Anchor)
		})
	}
}
