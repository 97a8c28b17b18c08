package statistics

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_SortsByDate(t *testing.T) {
	frame, err := ParseCSV(strings.NewReader(samplePrices))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, frame.Tickers)
	require.Equal(t, 3, frame.Rows())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), frame.Dates[0])
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), frame.Dates[2])
	assert.Equal(t, []float64{100, 110, 99}, frame.Column(0))
	assert.Equal(t, []float64{50, 50, 55}, frame.Column(1))
}

func TestParseCSV_MissingValues(t *testing.T) {
	input := "date,X,Y,Z\n01/02/2024,1,,NaN\n01/03/2024,2,n/a,3\n"
	frame, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 2, frame.Rows())
	assert.Equal(t, 1.0, frame.Prices[0][0])
	assert.True(t, math.IsNaN(frame.Prices[0][1]))
	assert.True(t, math.IsNaN(frame.Prices[0][2]))
	assert.True(t, math.IsNaN(frame.Prices[1][1]))
	assert.Equal(t, 3.0, frame.Prices[1][2])
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	frame, err := ParseCSV(strings.NewReader("Date,A\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, frame.Rows())
	assert.Equal(t, []string{"A"}, frame.Tickers)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no tickers", "Date\n2024-01-02\n"},
		{"blank ticker", "Date,A,\n2024-01-02,1,2\n"},
		{"duplicate ticker", "Date,A,A\n2024-01-02,1,2\n"},
		{"bad date", "Date,A\nyesterday,1\n"},
		{"duplicate date", "Date,A\n2024-01-02,1\n2024-01-02,2\n"},
		{"not a number", "Date,A\n2024-01-02,abc\n"},
		{"negative price", "Date,A\n2024-01-02,-4\n"},
		{"zero price", "Date,A\n2024-01-02,0\n"},
		{"ragged row", "Date,A,B\n2024-01-02,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidPrices)
		})
	}
}
