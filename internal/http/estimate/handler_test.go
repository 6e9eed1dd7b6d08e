package estimate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
	estimateHandler "github.com/MrJamesThe3rd/tally/internal/http/estimate"
	"github.com/MrJamesThe3rd/tally/internal/importer"
)

func finalRow(id string) estimate.Row {
	return estimate.Row{
		ID:               id,
		EstimateType:     estimate.TypeFinal,
		ClaimNumber:      "CLM-" + id,
		ClientName:       "Acme",
		TaskNumber:       "T-" + id,
		DateReceived:     "2024-03-01",
		TimeReceived:     "09:00",
		FinalAmount:      new("$250.00"),
		FinalAmountCents: 25000,
		Status:           estimate.StatusInProgress,
		Billed:           new(false),
	}
}

func newRouter(t *testing.T, setup func(m *estimate.MockRepository)) http.Handler {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := estimate.NewMockRepository(ctrl)

	if setup != nil {
		setup(repo)
	}

	svc := estimate.NewService(repo)
	require.NoError(t, svc.Load(context.Background()))

	r := chi.NewRouter()
	estimateHandler.NewHandler(svc, importer.NewService(svc)).Routes(r)

	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_List(t *testing.T) {
	h := newRouter(t, func(m *estimate.MockRepository) {
		m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("b"), finalRow("a")}, nil)
	})

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Estimates []struct {
			ID          string `json:"id"`
			FinalAmount string `json:"final_amount"`
			Billed      *bool  `json:"billed"`
		} `json:"estimates"`
		Loading bool `json:"loading"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	require.Len(t, resp.Estimates, 2)
	assert.Equal(t, "b", resp.Estimates[0].ID)
	assert.Equal(t, "$250.00", resp.Estimates[0].FinalAmount)
	require.NotNil(t, resp.Estimates[0].Billed)
	assert.False(t, *resp.Estimates[0].Billed)
	assert.False(t, resp.Loading)
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *estimate.MockRepository)
		wantStatus int
		wantFields []string
	}{
		{
			name: "Success",
			body: `{"estimate_type":"Final","claim_number":"CLM-1","client_name":"Acme","task_number":"T-1",` +
				`"date_received":"2024-03-01","time_received":"09:00","final_amount":"250"}`,
			setupMock: func(m *estimate.MockRepository) {
				m.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, row estimate.Row) (estimate.Row, error) {
						assert.Equal(t, int64(25000), row.FinalAmountCents)
						assert.Equal(t, estimate.StatusNotStarted, row.Status)
						return row, nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "MissingFields",
			body:       `{"estimate_type":"Final","time_returned":"10:00"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"claim_number", "client_name", "task_number", "date_received", "time_received", "date_returned"},
		},
		{
			name:       "MalformedBody",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "StoreFailure",
			body: `{"estimate_type":"Initial","claim_number":"CLM-1","client_name":"Acme","task_number":"T-1",` +
				`"date_received":"2024-03-01","time_received":"09:00"}`,
			setupMock: func(m *estimate.MockRepository) {
				m.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(estimate.Row{}, errors.New("connection refused"))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, func(m *estimate.MockRepository) {
				m.EXPECT().List(gomock.Any()).Return(nil, nil)

				if tt.setupMock != nil {
					tt.setupMock(m)
				}
			})

			rec := do(t, h, http.MethodPost, "/", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if len(tt.wantFields) == 0 {
				return
			}

			var resp struct {
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

			for _, f := range tt.wantFields {
				assert.Contains(t, resp.Fields, f)
			}
		})
	}
}

func TestHandler_MarkBilled(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(m *estimate.MockRepository)
		wantStatus int
	}{
		{
			name: "Success",
			setupMock: func(m *estimate.MockRepository) {
				billed := finalRow("a")
				billed.Billed = new(true)

				m.EXPECT().Update(gomock.Any(), "a", map[string]any{estimate.ColBilled: true}).Return(billed, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "NotFound",
			setupMock: func(m *estimate.MockRepository) {
				m.EXPECT().Update(gomock.Any(), "a", gomock.Any()).Return(estimate.Row{}, estimate.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, func(m *estimate.MockRepository) {
				m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("a")}, nil)
				tt.setupMock(m)
			})

			rec := do(t, h, http.MethodPost, "/a/billed", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	t.Run("InvalidStatus", func(t *testing.T) {
		h := newRouter(t, func(m *estimate.MockRepository) {
			m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("a")}, nil)
		})

		rec := do(t, h, http.MethodPatch, "/a/status", `{"status":"Paused"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Done", func(t *testing.T) {
		h := newRouter(t, func(m *estimate.MockRepository) {
			m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("a")}, nil)
			m.EXPECT().Update(gomock.Any(), "a", gomock.Any()).DoAndReturn(
				func(_ context.Context, _ string, cols map[string]any) (estimate.Row, error) {
					assert.Equal(t, "Done", cols[estimate.ColStatus])
					assert.Contains(t, cols, estimate.ColDateReturned)
					assert.Contains(t, cols, estimate.ColTimeReturned)

					row := finalRow("a")
					row.Status = estimate.StatusDone

					return row, nil
				})
		})

		rec := do(t, h, http.MethodPatch, "/a/status", `{"status":"Done"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Done", resp.Status)
	})
}

func TestHandler_UpdateAmount_Invalid(t *testing.T) {
	h := newRouter(t, func(m *estimate.MockRepository) {
		m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("a")}, nil)
	})

	rec := do(t, h, http.MethodPatch, "/a/amount", `{"final_amount":"1.2.3"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Update_Empty(t *testing.T) {
	h := newRouter(t, func(m *estimate.MockRepository) {
		m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("a")}, nil)
	})

	rec := do(t, h, http.MethodPatch, "/a", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Delete(t *testing.T) {
	h := newRouter(t, func(m *estimate.MockRepository) {
		m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("a")}, nil)
		m.EXPECT().Delete(gomock.Any(), "a").Return(nil)
	})

	rec := do(t, h, http.MethodDelete, "/a", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/", "")

	var resp struct {
		Estimates []json.RawMessage `json:"estimates"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Estimates)
}

func TestHandler_Update(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		path       string
		setupMock  func(m *estimate.MockRepository)
		wantStatus int
		wantFields []string
	}{
		{
			name: "Success",
			path: "/a",
			body: `{"date_returned":"2024-03-02","time_returned":"10:00"}`,
			setupMock: func(m *estimate.MockRepository) {
				m.EXPECT().Update(gomock.Any(), "a", map[string]any{
					estimate.ColDateReturned: "2024-03-02",
					estimate.ColTimeReturned: "10:00",
				}).DoAndReturn(func(_ context.Context, _ string, _ map[string]any) (estimate.Row, error) {
					row := finalRow("a")
					row.DateReturned = new("2024-03-02")
					row.TimeReturned = new("10:00")

					return row, nil
				})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "ReturnedBeforeReceived",
			path:       "/a",
			body:       `{"date_returned":"2020-01-01","time_returned":"00:00"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"date_returned", "time_returned"},
		},
		{
			name:       "HalfPairedReturned",
			path:       "/a",
			body:       `{"date_returned":"2024-03-02"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"time_returned"},
		},
		{
			name:       "UnknownType",
			path:       "/a",
			body:       `{"estimate_type":"Draft"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"estimate_type"},
		},
		{
			name:       "UnknownID",
			path:       "/zz",
			body:       `{"claim_number":"CLM-9"}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, func(m *estimate.MockRepository) {
				m.EXPECT().List(gomock.Any()).Return([]estimate.Row{finalRow("a")}, nil)

				if tt.setupMock != nil {
					tt.setupMock(m)
				}
			})

			rec := do(t, h, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if len(tt.wantFields) == 0 {
				return
			}

			var resp struct {
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

			for _, f := range tt.wantFields {
				assert.Contains(t, resp.Fields, f)
			}

			list := do(t, h, http.MethodGet, "/", "")

			var listResp struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.NewDecoder(list.Body).Decode(&listResp))
			assert.Empty(t, listResp.Error)
		})
	}
}

func TestHandler_ListQueries(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setupMock  func(m *estimate.MockRepository)
		wantStatus int
		wantIDs    []string
	}{
		{
			name:  "Unbilled",
			query: "?queue=unbilled",
			setupMock: func(m *estimate.MockRepository) {
				m.EXPECT().ListUnbilledFinal(gomock.Any()).Return([]estimate.Row{finalRow("u")}, nil)
			},
			wantStatus: http.StatusOK,
			wantIDs:    []string{"u"},
		},
		{
			name:  "ByStatus",
			query: "?status=In+Progress",
			setupMock: func(m *estimate.MockRepository) {
				m.EXPECT().ListByStatus(gomock.Any(), estimate.StatusInProgress).
					Return([]estimate.Row{finalRow("p"), finalRow("q")}, nil)
			},
			wantStatus: http.StatusOK,
			wantIDs:    []string{"p", "q"},
		},
		{
			name:       "InvalidStatus",
			query:      "?status=Paused",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "UnknownQueue",
			query:      "?queue=open",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "StoreFailure",
			query: "?queue=unbilled",
			setupMock: func(m *estimate.MockRepository) {
				m.EXPECT().ListUnbilledFinal(gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, func(m *estimate.MockRepository) {
				m.EXPECT().List(gomock.Any()).Return(nil, nil)

				if tt.setupMock != nil {
					tt.setupMock(m)
				}
			})

			rec := do(t, h, http.MethodGet, "/"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantIDs == nil {
				return
			}

			var resp struct {
				Estimates []struct {
					ID string `json:"id"`
				} `json:"estimates"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

			got := make([]string, 0, len(resp.Estimates))
			for _, e := range resp.Estimates {
				got = append(got, e.ID)
			}

			assert.Equal(t, tt.wantIDs, got)
		})
	}
}
