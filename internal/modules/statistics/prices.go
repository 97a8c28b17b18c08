// Package statistics turns price histories into the mean return vector and covariance
// matrix consumed by portfolio selection.
package statistics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPrices is returned for malformed price input
var ErrInvalidPrices = errors.New("invalid prices")

// dateLayouts are tried in order when parsing the index column
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// missing tokens parse as NaN
var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"null": true,
	"none": true,
	"-":    true,
}

// PriceFrame is a date-indexed table of closing prices, one column per ticker.
// Prices[r][c] is the price of Tickers[c] on Dates[r]; missing values are NaN.
type PriceFrame struct {
	Dates   []time.Time
	Tickers []string
	Prices  [][]float64
}

// Rows returns the number of dates
func (f *PriceFrame) Rows() int {
	return len(f.Dates)
}

// Column returns a copy of the price series for column c
func (f *PriceFrame) Column(c int) []float64 {
	col := make([]float64, len(f.Prices))
	for r, row := range f.Prices {
		col[r] = row[c]
	}
	return col
}

// ParseCSV reads a price table. The header row names the tickers after a leading index
// column; each following row starts with a date. Rows are returned sorted by date.
func ParseCSV(r io.Reader) (*PriceFrame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidPrices)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrices, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header needs a date column and at least one ticker", ErrInvalidPrices)
	}

	tickers := make([]string, 0, len(header)-1)
	seen := make(map[string]bool, len(header)-1)
	for _, h := range header[1:] {
		t := strings.TrimSpace(h)
		if t == "" {
			return nil, fmt.Errorf("%w: empty ticker in header", ErrInvalidPrices)
		}
		if seen[t] {
			return nil, fmt.Errorf("%w: duplicate ticker %q", ErrInvalidPrices, t)
		}
		seen[t] = true
		tickers = append(tickers, t)
	}

	frame := &PriceFrame{Tickers: tickers}
	seenDates := make(map[time.Time]bool)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPrices, err)
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidPrices, line, err)
		}
		if seenDates[date] {
			return nil, fmt.Errorf("%w: line %d: duplicate date %s", ErrInvalidPrices, line, record[0])
		}
		seenDates[date] = true

		row := make([]float64, len(tickers))
		for c, cell := range record[1:] {
			v, err := parsePrice(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d, %s: %w", ErrInvalidPrices, line, tickers[c], err)
			}
			row[c] = v
		}

		frame.Dates = append(frame.Dates, date)
		frame.Prices = append(frame.Prices, row)
	}

	frame.sortByDate()
	return frame, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if missingTokens[strings.ToLower(s)] {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("price must be positive and finite, got %q", s)
	}
	return v, nil
}

func (f *PriceFrame) sortByDate() {
	idx := make([]int, len(f.Dates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return f.Dates[idx[a]].Before(f.Dates[idx[b]])
	})

	dates := make([]time.Time, len(idx))
	prices := make([][]float64, len(idx))
	for i, j := range idx {
		dates[i] = f.Dates[j]
		prices[i] = f.Prices[j]
	}
	f.Dates, f.Prices = dates, prices
}
