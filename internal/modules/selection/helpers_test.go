package selection

import (
	"context"
	"sync/atomic"

	"github.com/aristath/quantpick/internal/modules/quantum"
)

// fakeSampler returns whatever fn produces and counts calls
type fakeSampler struct {
	calls atomic.Int64
	fn    func(c *quantum.Circuit, shots int) (quantum.Histogram, error)
}

func (f *fakeSampler) Run(ctx context.Context, c *quantum.Circuit, shots int) (quantum.Histogram, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fn(c, shots)
}

// fixedSampler returns the same histogram for every circuit
func fixedSampler(h quantum.Histogram) *fakeSampler {
	return &fakeSampler{fn: func(*quantum.Circuit, int) (quantum.Histogram, error) {
		return h, nil
	}}
}

// outcome parses "101" style bitstrings, bit i = character i
func outcome(bits string, count int) quantum.Outcome {
	b := make([]uint8, len(bits))
	for i, ch := range bits {
		if ch == '1' {
			b[i] = 1
		}
	}
	return quantum.Outcome{Bits: b, Count: count}
}

// scenarioProblem is the three-asset universe used throughout the tests
func scenarioProblem() Problem {
	return Problem{
		Mu: []float64{0.1, 0.05, -0.02},
		Cov: [][]float64{
			{0.04, 0, 0},
			{0, 0.01, 0},
			{0, 0, 0.02},
		},
		Tickers: []string{"A", "B", "C"},
	}
}
