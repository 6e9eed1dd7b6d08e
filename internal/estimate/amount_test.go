package estimate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int64
		wantErr bool
	}{
		{name: "Whole dollars", text: "100", want: 10000},
		{name: "Formatted", text: "$1,234.50", want: 123450},
		{name: "Rounds half up", text: "10.005", want: 1001},
		{name: "Single decimal", text: "7.5", want: 750},
		{name: "Empty", text: "", want: 0},
		{name: "Only symbols", text: "$", want: 0},
		{name: "Negative", text: "-12.30", want: -1230},
		{name: "Two dots", text: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := estimate.ParseCents(tt.text)
			if tt.wantErr {
				require.ErrorIs(t, err, estimate.ErrInvalidAmount)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 10000, want: "$100.00"},
		{cents: 123450, want: "$1,234.50"},
		{cents: 5, want: "$0.05"},
		{cents: 0, want: "$0.00"},
		{cents: -1230, want: "-$12.30"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, estimate.FormatUSD(tt.cents))
		})
	}
}

func TestFormatAmountText(t *testing.T) {
	got, ok := estimate.FormatAmountText("100")
	assert.True(t, ok)
	assert.Equal(t, "$100.00", got)

	got, ok = estimate.FormatAmountText("")
	assert.True(t, ok)
	assert.Empty(t, got)

	got, ok = estimate.FormatAmountText("1..2")
	assert.False(t, ok)
	assert.Equal(t, "1..2", got)
}
