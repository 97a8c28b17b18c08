package statistics

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
)

// ReturnFrame holds simple period returns. Values[r][c] is the return of Tickers[c]
// between Dates[r-1] and Dates[r] of the source frame.
type ReturnFrame struct {
	Dates   []time.Time
	Tickers []string
	Values  [][]float64
}

// Rows returns the number of observations
func (f *ReturnFrame) Rows() int {
	return len(f.Values)
}

// Returns computes percentage changes between consecutive rows. Gaps are forward-filled
// first; the first row and any row that still has a missing value are dropped.
func Returns(frame *PriceFrame) *ReturnFrame {
	out := &ReturnFrame{Tickers: append([]string(nil), frame.Tickers...)}
	rows, cols := frame.Rows(), len(frame.Tickers)
	if rows < 2 || cols == 0 {
		return out
	}

	columns := make([][]float64, cols)
	for c := range columns {
		prices := forwardFill(frame.Column(c))
		columns[c] = talib.Rocp(prices, 1)
	}

	for r := 1; r < rows; r++ {
		row := make([]float64, cols)
		complete := true
		for c := range columns {
			v := columns[c][r]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				complete = false
				break
			}
			row[c] = v
		}
		if !complete {
			continue
		}
		out.Dates = append(out.Dates, frame.Dates[r])
		out.Values = append(out.Values, row)
	}
	return out
}

// forwardFill replaces NaN with the last observed value; leading NaNs stay
func forwardFill(xs []float64) []float64 {
	last := math.NaN()
	for i, v := range xs {
		if math.IsNaN(v) {
			xs[i] = last
			continue
		}
		last = v
	}
	return xs
}
