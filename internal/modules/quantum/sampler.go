package quantum

import (
	"context"
	"strings"
)

// Sampler executes a circuit for a number of repetitions and reports how often
// each measured bitstring occurred.
type Sampler interface {
	Run(ctx context.Context, circuit *Circuit, shots int) (Histogram, error)
}

// SamplerFunc adapts a function to the Sampler interface
type SamplerFunc func(ctx context.Context, circuit *Circuit, shots int) (Histogram, error)

// Run calls f
func (f SamplerFunc) Run(ctx context.Context, circuit *Circuit, shots int) (Histogram, error) {
	return f(ctx, circuit, shots)
}

// Outcome is one observed bitstring and its occurrence count.
// Bits[i] is the measurement of the i-th measured qubit.
type Outcome struct {
	Bits  []uint8 `json:"bits"`
	Count int     `json:"count"`
}

// String renders the bits in qubit order, e.g. "101"
func (o Outcome) String() string {
	var sb strings.Builder
	sb.Grow(len(o.Bits))
	for _, b := range o.Bits {
		if b != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Histogram lists outcomes in the order they were first observed
type Histogram []Outcome

// Total returns the sum of all counts
func (h Histogram) Total() int {
	total := 0
	for _, o := range h {
		total += o.Count
	}
	return total
}

// Counts returns the histogram keyed by bitstring
func (h Histogram) Counts() map[string]int {
	counts := make(map[string]int, len(h))
	for _, o := range h {
		counts[o.String()] += o.Count
	}
	return counts
}
