package statistics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/quantpick/internal/modules/selection"
)

// Statistics are per-asset mean returns and the sample covariance of returns
type Statistics struct {
	Tickers      []string    `json:"tickers" msgpack:"tickers"`
	Mu           []float64   `json:"mu" msgpack:"mu"`
	Cov          [][]float64 `json:"cov" msgpack:"cov"`
	Observations int         `json:"observations" msgpack:"observations"`
}

// Problem converts the statistics into a selection problem
func (s *Statistics) Problem() selection.Problem {
	return selection.Problem{
		Mu:      s.Mu,
		Cov:     s.Cov,
		Tickers: s.Tickers,
	}
}

// Compute derives mean returns and the unbiased covariance matrix from a price frame.
// Undefined entries (too few observations) are reported as 0.
func Compute(frame *PriceFrame) *Statistics {
	returns := Returns(frame)
	n := len(returns.Tickers)

	s := &Statistics{
		Tickers:      returns.Tickers,
		Mu:           make([]float64, n),
		Cov:          make([][]float64, n),
		Observations: returns.Rows(),
	}
	for i := range s.Cov {
		s.Cov[i] = make([]float64, n)
	}
	if n == 0 || s.Observations == 0 {
		return s
	}

	data := mat.NewDense(s.Observations, n, nil)
	for r, row := range returns.Values {
		data.SetRow(r, row)
	}

	col := make([]float64, s.Observations)
	for c := 0; c < n; c++ {
		mat.Col(col, c, data)
		s.Mu[c] = zeroIfNaN(stat.Mean(col, nil))
	}

	// a single observation has no sample covariance
	if s.Observations < 2 {
		return s
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s.Cov[i][j] = zeroIfNaN(cov.At(i, j))
		}
	}
	return s
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
