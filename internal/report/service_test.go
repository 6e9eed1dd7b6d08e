package report_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/report"
)

type fakeSource struct {
	items []estimate.Record
	err   error
	got   datewindow.Bounds
}

func (f *fakeSource) ReturnedWithin(_ context.Context, b datewindow.Bounds) ([]estimate.Record, error) {
	f.got = b
	return f.items, f.err
}

func items() []estimate.Record {
	return []estimate.Record{
		{
			ID: "a", EstimateType: estimate.TypeFinal, ClaimNumber: "1002", ClientName: "Globex", TaskNumber: "T-02",
			DateReceived: "2024-03-01", TimeReceived: "10:00", DateReturned: "2024-03-01", TimeReturned: "14:00",
			FinalAmount: "$250.00", FinalAmountCents: 25000, Status: estimate.StatusDone, Billed: new(false),
		},
		{
			ID: "b", EstimateType: estimate.TypeInitial, ClaimNumber: "1001", ClientName: "Acme Co", TaskNumber: "T-01",
			DateReceived: "2024-03-02", TimeReceived: "09:00", DateReturned: "2024-03-02", TimeReturned: "11:00",
			Status: estimate.StatusDone,
		},
	}
}

func TestService_Build(t *testing.T) {
	src := &fakeSource{items: items()}
	svc := report.NewService(src, time.UTC)

	rep, err := svc.Build(context.Background(), datewindow.Monthly, "2024-03")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), src.got.Start)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), src.got.End)
	assert.Equal(t, 2, rep.Counts.Total)
	assert.Equal(t, int64(25000), rep.TotalCents)
	assert.Equal(t, 1, rep.Unbilled)

	src.err = errors.New("db error")
	_, err = svc.Build(context.Background(), datewindow.Monthly, "2024-03")
	assert.Error(t, err)
}

func TestSummaryLines(t *testing.T) {
	want := "* 2024-03-01 | 1002 | Globex | Final | $250.00 | Unbilled\n" +
		"* 2024-03-02 | 1001 | Acme Co | Initial | - | n/a\n"

	assert.Equal(t, want, report.SummaryLines(items()))
	assert.Empty(t, report.SummaryLines(nil))
}

func TestWriteCSV_ReadableByImporter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, items()))

	rows, err := importer.NewParser().Parse(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1002", rows[0].Form.ClaimNumber)
	assert.Equal(t, "$250.00", rows[0].Form.FinalAmount)
	assert.Equal(t, "Final", rows[0].Form.EstimateType)
	assert.NoError(t, rows[1].Form.Validate())
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteArchive(&buf, report.Report{Items: items()}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	assert.Equal(t, "estimates.csv", zr.File[0].Name)
	assert.Equal(t, "summary.txt", zr.File[1].Name)

	f, err := zr.File[1].Open()
	require.NoError(t, err)
	defer f.Close()

	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "* 2024-03-01 | 1002"))
}
