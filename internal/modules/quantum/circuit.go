// Package quantum provides circuit descriptions and a statevector sampler used by the
// portfolio search. Circuits are plain data; anything implementing Sampler can execute them.
package quantum

import (
	"errors"
	"fmt"
	"math"
)

// Gate identifies the operation applied by an Op
type Gate string

const (
	// GateH is the Hadamard gate
	GateH Gate = "H"
	// GateZPow is Z**t = diag(1, e^{i*pi*t}); Param holds t
	GateZPow Gate = "ZPow"
	// GateZZPow is ZZ**t = diag(1, w, w, 1) with w = e^{i*pi*t}; Param holds t
	GateZZPow Gate = "ZZPow"
	// GateRx is exp(-i*theta*X/2); Param holds theta in radians
	GateRx Gate = "Rx"
	// GateMeasure measures its qubits in the computational basis
	GateMeasure Gate = "M"
)

// ErrInvalidCircuit is returned by Validate for malformed circuits
var ErrInvalidCircuit = errors.New("invalid circuit")

// Op is a single gate application
type Op struct {
	Gate   Gate    `json:"gate"`
	Qubits []int   `json:"qubits"`
	Param  float64 `json:"param,omitempty"`
}

// Circuit is an ordered list of operations over a fixed register of qubits.
type Circuit struct {
	Qubits int    `json:"qubits"`
	Ops    []Op   `json:"ops"`
	Key    string `json:"key,omitempty"`

	// Stream selects the sampler's random stream. Circuits evaluated with the same
	// seed and stream produce identical histograms.
	Stream uint64 `json:"stream"`
}

// NewCircuit creates an empty circuit over n qubits
func NewCircuit(n int) *Circuit {
	return &Circuit{Qubits: n}
}

// H applies a Hadamard to each listed qubit
func (c *Circuit) H(qubits ...int) *Circuit {
	for _, q := range qubits {
		c.Ops = append(c.Ops, Op{Gate: GateH, Qubits: []int{q}})
	}
	return c
}

// ZPow applies Z**t to qubit q
func (c *Circuit) ZPow(q int, t float64) *Circuit {
	c.Ops = append(c.Ops, Op{Gate: GateZPow, Qubits: []int{q}, Param: t})
	return c
}

// ZZPow applies ZZ**t to the pair (a, b)
func (c *Circuit) ZZPow(a, b int, t float64) *Circuit {
	c.Ops = append(c.Ops, Op{Gate: GateZZPow, Qubits: []int{a, b}, Param: t})
	return c
}

// Rx applies an X rotation by theta to each listed qubit
func (c *Circuit) Rx(theta float64, qubits ...int) *Circuit {
	for _, q := range qubits {
		c.Ops = append(c.Ops, Op{Gate: GateRx, Qubits: []int{q}, Param: theta})
	}
	return c
}

// Measure appends a measurement of the listed qubits under key
func (c *Circuit) Measure(key string, qubits ...int) *Circuit {
	c.Key = key
	c.Ops = append(c.Ops, Op{Gate: GateMeasure, Qubits: append([]int(nil), qubits...)})
	return c
}

// AllQubits returns the indices 0..n-1
func (c *Circuit) AllQubits() []int {
	qs := make([]int, c.Qubits)
	for i := range qs {
		qs[i] = i
	}
	return qs
}

// Measured returns the qubits of the final measurement, or nil if the circuit has none
func (c *Circuit) Measured() []int {
	for i := len(c.Ops) - 1; i >= 0; i-- {
		if c.Ops[i].Gate == GateMeasure {
			return c.Ops[i].Qubits
		}
	}
	return nil
}

// CountGates returns how many ops of each gate kind the circuit contains
func (c *Circuit) CountGates() map[Gate]int {
	counts := make(map[Gate]int)
	for _, op := range c.Ops {
		counts[op.Gate]++
	}
	return counts
}

// Validate checks gate arity, qubit ranges and parameters.
// Exactly one measurement is allowed and it must be the last op.
func (c *Circuit) Validate() error {
	if c.Qubits <= 0 {
		return fmt.Errorf("%w: circuit has %d qubits", ErrInvalidCircuit, c.Qubits)
	}

	for i, op := range c.Ops {
		var arity int
		switch op.Gate {
		case GateH, GateZPow, GateRx:
			arity = 1
		case GateZZPow:
			arity = 2
		case GateMeasure:
			if i != len(c.Ops)-1 {
				return fmt.Errorf("%w: measurement at op %d is not the final op", ErrInvalidCircuit, i)
			}
			arity = len(op.Qubits)
			if arity == 0 {
				return fmt.Errorf("%w: measurement without qubits", ErrInvalidCircuit)
			}
		default:
			return fmt.Errorf("%w: unknown gate %q at op %d", ErrInvalidCircuit, op.Gate, i)
		}

		if len(op.Qubits) != arity {
			return fmt.Errorf("%w: gate %s at op %d expects %d qubits, got %d", ErrInvalidCircuit, op.Gate, i, arity, len(op.Qubits))
		}

		seen := make(map[int]bool, len(op.Qubits))
		for _, q := range op.Qubits {
			if q < 0 || q >= c.Qubits {
				return fmt.Errorf("%w: qubit %d out of range at op %d", ErrInvalidCircuit, q, i)
			}
			if seen[q] {
				return fmt.Errorf("%w: qubit %d repeated at op %d", ErrInvalidCircuit, q, i)
			}
			seen[q] = true
		}

		if math.IsNaN(op.Param) || math.IsInf(op.Param, 0) {
			return fmt.Errorf("%w: non-finite parameter at op %d", ErrInvalidCircuit, i)
		}
	}

	if c.Measured() == nil {
		return fmt.Errorf("%w: circuit has no measurement", ErrInvalidCircuit)
	}

	return nil
}
