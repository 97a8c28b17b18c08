package selection

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Bitstring marks selected assets: Bitstring[i] == 1 selects asset i.
type Bitstring []uint8

// Weight returns the number of selected assets
func (b Bitstring) Weight() int {
	k := 0
	for _, bit := range b {
		if bit != 0 {
			k++
		}
	}
	return k
}

// Feasible reports 0 < weight <= budget
func (b Bitstring) Feasible(budget int) bool {
	k := b.Weight()
	return k > 0 && k <= budget
}

// Indices returns the selected positions in ascending order
func (b Bitstring) Indices() []int {
	idx := make([]int, 0, b.Weight())
	for i, bit := range b {
		if bit != 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func (b Bitstring) String() string {
	var sb strings.Builder
	for _, bit := range b {
		if bit != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (b Bitstring) vector() *mat.VecDense {
	x := make([]float64, len(b))
	for i, bit := range b {
		if bit != 0 {
			x[i] = 1
		}
	}
	return mat.NewVecDense(len(x), x)
}

// Candidate is an immutable scored feasible outcome.
// Evaluation and Outcome record where it was observed: the grid enumeration index
// and the position within that evaluation's histogram.
type Candidate struct {
	Bits       Bitstring `json:"bits"`
	Cost       float64   `json:"cost"`
	Score      float64   `json:"score"`
	Count      int       `json:"count"`
	Evaluation int       `json:"evaluation"`
	Outcome    int       `json:"outcome"`
}

// Cost returns -(mu . b) + b^T cov b
func (m *model) Cost(b Bitstring) float64 {
	x := b.vector()
	return -mat.Dot(m.mu, x) + mat.Inner(x, m.cov, x)
}

// Score weights the negated cost by the outcome's empirical frequency
func Score(cost float64, count, shots int) float64 {
	return float64(count) / float64(shots) * (-cost)
}

// precedes orders candidates by where they were observed
func (c *Candidate) precedes(o *Candidate) bool {
	if c.Evaluation != o.Evaluation {
		return c.Evaluation < o.Evaluation
	}
	return c.Outcome < o.Outcome
}

// Best returns whichever candidate a sequential scan would keep: the higher score,
// and on an exact tie the one observed first. Either argument may be nil.
func Best(a, b *Candidate) *Candidate {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Score > b.Score:
		return a
	case b.Score > a.Score:
		return b
	case a.precedes(b):
		return a
	default:
		return b
	}
}

// admissible mirrors a strict improvement over a -Inf starting score; NaN never qualifies.
func admissible(score float64) bool {
	return score > math.Inf(-1)
}

// scoreOutcome returns the candidate for one outcome, or nil if it is infeasible
// or its score can never win.
func (m *model) scoreOutcome(bits Bitstring, count, shots, budget, evaluation, outcome int) *Candidate {
	if len(bits) != m.n || !bits.Feasible(budget) {
		return nil
	}
	cost := m.Cost(bits)
	score := Score(cost, count, shots)
	if !admissible(score) {
		return nil
	}
	return &Candidate{
		Bits:       append(Bitstring(nil), bits...),
		Cost:       cost,
		Score:      score,
		Count:      count,
		Evaluation: evaluation,
		Outcome:    outcome,
	}
}
