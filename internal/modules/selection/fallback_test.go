package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_Scenario(t *testing.T) {
	p := scenarioProblem()

	ratios, err := FallbackRatios(p, DegenerateFail)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ratios[0], 1e-12)
	assert.InDelta(t, 0.5, ratios[1], 1e-12)
	assert.InDelta(t, -0.1414, ratios[2], 1e-4)

	// A and B tie; the lower index wins
	bits, err := Fallback(p, 1, DegenerateFail)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, Picks(p.Tickers, bits))

	bits, err = Fallback(p, 2, DegenerateFail)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, Picks(p.Tickers, bits))
}

func TestFallback_ReturnsAscendingIndexOrder(t *testing.T) {
	p := Problem{
		Mu:      []float64{0.01, 0.2, 0.05},
		Cov:     [][]float64{{0.01, 0, 0}, {0, 0.04, 0}, {0, 0, 0.01}},
		Tickers: []string{"X", "Y", "Z"},
	}

	// ratios 0.1, 1.0, 0.5 -> top two are Y then Z
	bits, err := Fallback(p, 2, DegenerateFail)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "Z"}, Picks(p.Tickers, bits))
}

func TestFallback_DegenerateFail(t *testing.T) {
	p := scenarioProblem()
	p.Cov[1][1] = 0

	_, err := Fallback(p, 1, DegenerateFail)
	assert.ErrorIs(t, err, ErrDegenerateAsset)
	assert.Contains(t, err.Error(), "B")
}

func TestFallback_DegenerateRank(t *testing.T) {
	p := Problem{
		Mu:      []float64{0, 0.1, -0.1, 0.02},
		Cov:     [][]float64{{0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0.04}},
		Tickers: []string{"FLAT", "UP", "DOWN", "RISKY"},
	}

	ratios, err := FallbackRatios(p, DegenerateRank)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ratios[0])
	assert.True(t, math.IsInf(ratios[1], 1))
	assert.True(t, math.IsInf(ratios[2], -1))
	assert.InDelta(t, 0.1, ratios[3], 1e-12)

	bits, err := Fallback(p, 2, DegenerateRank)
	require.NoError(t, err)
	assert.Equal(t, []string{"UP", "RISKY"}, Picks(p.Tickers, bits))
}

func TestParseDegeneratePolicy(t *testing.T) {
	p, err := ParseDegeneratePolicy("rank")
	require.NoError(t, err)
	assert.Equal(t, DegenerateRank, p)
	assert.Equal(t, "rank", p.String())

	p, err = ParseDegeneratePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DegenerateFail, p)

	_, err = ParseDegeneratePolicy("ignore")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
