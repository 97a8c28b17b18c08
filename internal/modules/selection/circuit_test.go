package selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantpick/internal/modules/quantum"
)

func TestBuildCircuit_Structure(t *testing.T) {
	p := scenarioProblem()
	c, err := BuildCircuit(p.Mu, p.Cov, []float64{0.1, 0.2}, []float64{0.3, 0.4})
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	counts := c.CountGates()
	assert.Equal(t, 3, counts[quantum.GateH], "superposition is prepared once")
	assert.Equal(t, 6, counts[quantum.GateZPow])
	assert.Equal(t, 6, counts[quantum.GateZZPow], "three unique pairs per layer")
	assert.Equal(t, 6, counts[quantum.GateRx])
	assert.Equal(t, 1, counts[quantum.GateMeasure])
	assert.Equal(t, MeasurementKey, c.Key)
	assert.Equal(t, []int{0, 1, 2}, c.Measured())

	for _, op := range c.Ops[:3] {
		assert.Equal(t, quantum.GateH, op.Gate)
	}
}

func TestBuildCircuit_AngleMapping(t *testing.T) {
	mu := []float64{0.1, 0.05}
	cov := [][]float64{{0.04, 0.02}, {0.02, 0.01}}
	gamma, beta := math.Pi/2, math.Pi/4

	c, err := BuildCircuit(mu, cov, []float64{gamma}, []float64{beta})
	require.NoError(t, err)

	// H, H, Z0, Z1, ZZ01, Rx0, Rx1, M
	require.Len(t, c.Ops, 8)
	assert.InDelta(t, 2*gamma*(0.1/2)/math.Pi, c.Ops[2].Param, 1e-15)
	assert.InDelta(t, 0.05, c.Ops[2].Param, 1e-15)
	assert.InDelta(t, 0.025, c.Ops[3].Param, 1e-15)

	assert.Equal(t, quantum.GateZZPow, c.Ops[4].Gate)
	assert.Equal(t, []int{0, 1}, c.Ops[4].Qubits)
	assert.InDelta(t, 0.005, c.Ops[4].Param, 1e-15)

	assert.Equal(t, quantum.GateRx, c.Ops[5].Gate)
	assert.InDelta(t, math.Pi/2, c.Ops[5].Param, 1e-15)
}

func TestBuildCircuit_Errors(t *testing.T) {
	p := scenarioProblem()

	_, err := BuildCircuit(p.Mu, p.Cov[:2], []float64{0}, []float64{0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = BuildCircuit(p.Mu, [][]float64{{1}, {1}, {1}}, []float64{0}, []float64{0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = BuildCircuit(p.Mu, p.Cov, []float64{0, 1}, []float64{0})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = BuildCircuit(p.Mu, p.Cov, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
