package selection

import (
	"fmt"
	"math"
	"sort"
)

// DegeneratePolicy decides how the fallback ranks assets whose variance is not positive.
type DegeneratePolicy int

const (
	// DegenerateFail aborts the fallback with ErrDegenerateAsset
	DegenerateFail DegeneratePolicy = iota
	// DegenerateRank ranks a zero-variance asset at +Inf for positive mean return,
	// -Inf for negative and 0 for zero
	DegenerateRank
)

// ParseDegeneratePolicy maps "fail" / "rank" to a policy
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch s {
	case "", "fail":
		return DegenerateFail, nil
	case "rank":
		return DegenerateRank, nil
	default:
		return DegenerateFail, fmt.Errorf("%w: unknown degenerate policy %q", ErrInvalidParameter, s)
	}
}

func (p DegeneratePolicy) String() string {
	if p == DegenerateRank {
		return "rank"
	}
	return "fail"
}

// FallbackRatios returns mu_i / sqrt(cov_ii) for every asset
func FallbackRatios(p Problem, policy DegeneratePolicy) ([]float64, error) {
	ratios := make([]float64, p.N())
	for i := range ratios {
		variance := p.Cov[i][i]
		if variance > 0 {
			ratios[i] = p.Mu[i] / math.Sqrt(variance)
			continue
		}

		if policy == DegenerateFail {
			return nil, fmt.Errorf("%w: %s has variance %v", ErrDegenerateAsset, p.Tickers[i], variance)
		}
		switch {
		case p.Mu[i] > 0:
			ratios[i] = math.Inf(1)
		case p.Mu[i] < 0:
			ratios[i] = math.Inf(-1)
		default:
			ratios[i] = 0
		}
	}
	return ratios, nil
}

// Fallback selects the budget assets with the highest mean/stddev ratio.
// Equal ratios keep ascending index order. The result is returned as a bitstring.
func Fallback(p Problem, budget int, policy DegeneratePolicy) (Bitstring, error) {
	ratios, err := FallbackRatios(p, policy)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(ratios))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ratios[order[a]] > ratios[order[b]]
	})

	if budget > len(order) {
		budget = len(order)
	}

	bits := make(Bitstring, len(ratios))
	for _, idx := range order[:budget] {
		bits[idx] = 1
	}
	return bits, nil
}
