// Package selection picks a budget-constrained subset of assets with a QAOA-style grid
// search over sampled circuits, falling back to a Sharpe-like ranking when no sampled
// bitstring satisfies the budget.
package selection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Problem is the asset universe with its return statistics.
// Index i refers to the same asset in Mu, Cov, Tickers and every bitstring.
type Problem struct {
	Mu      []float64
	Cov     [][]float64
	Tickers []string
}

// Params are the search parameters
type Params struct {
	Budget int `json:"budget"`
	Depth  int `json:"depth"`
	Grid   int `json:"grid"`
	Shots  int `json:"shots"`
}

// N returns the number of assets
func (p Problem) N() int {
	return len(p.Tickers)
}

// Validate checks len(mu) == len(tickers) == dim(cov) and that cov is square.
func (p Problem) Validate() error {
	n := len(p.Tickers)
	if len(p.Mu) != n {
		return fmt.Errorf("%w: %d tickers but %d mean returns", ErrDimensionMismatch, n, len(p.Mu))
	}
	if len(p.Cov) != n {
		return fmt.Errorf("%w: %d tickers but covariance has %d rows", ErrDimensionMismatch, n, len(p.Cov))
	}
	for i, row := range p.Cov {
		if len(row) != n {
			return fmt.Errorf("%w: covariance row %d has %d columns, expected %d", ErrDimensionMismatch, i, len(row), n)
		}
	}

	for i, v := range p.Mu {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: mean return for %s is not finite", ErrInvalidParameter, p.Tickers[i])
		}
		for j, c := range p.Cov[i] {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%w: covariance (%d, %d) is not finite", ErrInvalidParameter, i, j)
			}
		}
	}

	seen := make(map[string]bool, n)
	for _, t := range p.Tickers {
		if seen[t] {
			return fmt.Errorf("%w: duplicate ticker %q", ErrInvalidParameter, t)
		}
		seen[t] = true
	}
	return nil
}

// Validate checks 1 <= budget <= n, depth >= 1, grid >= 1, shots >= 1.
func (p Params) Validate(n int) error {
	if p.Budget < 1 || p.Budget > n {
		return fmt.Errorf("%w: budget must be between 1 and %d, got %d", ErrInvalidParameter, n, p.Budget)
	}
	if p.Depth < 1 {
		return fmt.Errorf("%w: depth must be at least 1, got %d", ErrInvalidParameter, p.Depth)
	}
	if p.Grid < 1 {
		return fmt.Errorf("%w: grid must be at least 1, got %d", ErrInvalidParameter, p.Grid)
	}
	if p.Shots < 1 {
		return fmt.Errorf("%w: shots must be at least 1, got %d", ErrInvalidParameter, p.Shots)
	}
	return nil
}

// model holds gonum views of the problem used while scoring
type model struct {
	mu  *mat.VecDense
	cov *mat.Dense
	n   int
}

func newModel(p Problem) *model {
	n := p.N()
	m := &model{n: n}
	if n == 0 {
		return m
	}
	m.mu = mat.NewVecDense(n, append([]float64(nil), p.Mu...))
	m.cov = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.cov.SetRow(i, p.Cov[i])
	}
	return m
}
