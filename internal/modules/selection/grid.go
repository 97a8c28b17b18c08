package selection

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// AngleGrid returns grid evenly spaced points over [lo, hi], endpoints included.
// A single point grid is {lo}.
func AngleGrid(lo, hi float64, grid int) []float64 {
	if grid <= 0 {
		return nil
	}
	if grid == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, grid), lo, hi)
}

// GammaGrid is the gamma sweep over [0, pi]
func GammaGrid(grid int) []float64 {
	return AngleGrid(0, math.Pi, grid)
}

// BetaGrid is the beta sweep over [0, pi/2]
func BetaGrid(grid int) []float64 {
	return AngleGrid(0, math.Pi/2, grid)
}

// EvaluationCount returns grid^(2*depth). ok is false when the count overflows an int.
func EvaluationCount(grid, depth int) (count int, ok bool) {
	if grid < 1 || depth < 1 {
		return 0, false
	}
	count = 1
	for i := 0; i < 2*depth; i++ {
		if count > math.MaxInt/grid {
			return 0, false
		}
		count *= grid
	}
	return count, true
}

// angleSchedule maps an enumeration index to its (gammas, betas) pair.
// Gamma tuples are the outer loop and beta tuples the inner; within a tuple the
// last layer varies fastest.
type angleSchedule struct {
	gammaVals []float64
	betaVals  []float64
	depth     int
	perTuple  int // grid^depth
}

func newAngleSchedule(grid, depth int) angleSchedule {
	perTuple := 1
	for i := 0; i < depth; i++ {
		perTuple *= grid
	}
	return angleSchedule{
		gammaVals: GammaGrid(grid),
		betaVals:  BetaGrid(grid),
		depth:     depth,
		perTuple:  perTuple,
	}
}

func (s angleSchedule) at(k int) (gammas, betas []float64) {
	return s.tuple(s.gammaVals, k/s.perTuple), s.tuple(s.betaVals, k%s.perTuple)
}

func (s angleSchedule) tuple(vals []float64, idx int) []float64 {
	grid := len(vals)
	out := make([]float64, s.depth)
	for p := s.depth - 1; p >= 0; p-- {
		out[p] = vals[idx%grid]
		idx /= grid
	}
	return out
}
