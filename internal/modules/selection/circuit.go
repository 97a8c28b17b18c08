package selection

import (
	"fmt"
	"math"

	"github.com/aristath/quantpick/internal/modules/quantum"
)

// MeasurementKey names the final measurement of portfolio circuits
const MeasurementKey = "z"

// BuildCircuit encodes the portfolio cost into a layered QAOA circuit.
//
// Angle mapping, per layer p:
//
//	linear term   Z**t   on qubit i,     t = 2*gamma_p*(mu_i/2)/pi
//	coupling term ZZ**t  on pair i<j,    t = 2*gamma_p*(cov_ij/4)/pi
//	mixer         Rx(2*beta_p) on every qubit
//
// The circuit opens with a Hadamard on every qubit and ends by measuring all of them.
func BuildCircuit(mu []float64, cov [][]float64, gammas, betas []float64) (*quantum.Circuit, error) {
	n := len(mu)
	if len(cov) != n {
		return nil, fmt.Errorf("%w: %d mean returns but covariance has %d rows", ErrDimensionMismatch, n, len(cov))
	}
	for i, row := range cov {
		if len(row) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d columns, expected %d", ErrDimensionMismatch, i, len(row), n)
		}
	}
	if len(gammas) == 0 || len(gammas) != len(betas) {
		return nil, fmt.Errorf("%w: need one (gamma, beta) pair per layer, got %d gammas and %d betas", ErrInvalidParameter, len(gammas), len(betas))
	}

	c := quantum.NewCircuit(n)
	qubits := c.AllQubits()
	c.H(qubits...)

	for p := range gammas {
		gamma, beta := gammas[p], betas[p]
		for i := 0; i < n; i++ {
			h := mu[i] / 2
			c.ZPow(i, 2*gamma*h/math.Pi)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				J := cov[i][j] / 4
				c.ZZPow(i, j, 2*gamma*J/math.Pi)
			}
		}
		c.Rx(2*beta, qubits...)
	}

	c.Measure(MeasurementKey, qubits...)
	return c, nil
}
