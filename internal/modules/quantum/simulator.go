package quantum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"sort"
)

// DefaultMaxQubits bounds the statevector at 2^16 amplitudes (1 MiB)
const DefaultMaxQubits = 16

// cancelCheckInterval is the number of gates applied between context checks
const cancelCheckInterval = 64

// ErrTooManyQubits is returned when a circuit exceeds the simulator's register limit
var ErrTooManyQubits = errors.New("circuit exceeds simulator qubit limit")

// SimulatorConfig configures a Simulator
type SimulatorConfig struct {
	Seed      uint64
	MaxQubits int
}

// Simulator is a dense statevector Sampler. Qubit i corresponds to bit i of the
// basis-state index. It holds no state between calls and is safe for concurrent use.
type Simulator struct {
	seed      uint64
	maxQubits int
}

// NewSimulator creates a statevector simulator
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.MaxQubits <= 0 {
		cfg.MaxQubits = DefaultMaxQubits
	}
	return &Simulator{
		seed:      cfg.Seed,
		maxQubits: cfg.MaxQubits,
	}
}

// MaxQubits returns the register limit
func (s *Simulator) MaxQubits() int {
	return s.maxQubits
}

// Run evolves |0...0> through the circuit and samples the final measurement shots times.
func (s *Simulator) Run(ctx context.Context, circuit *Circuit, shots int) (Histogram, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("shots must be positive, got %d", shots)
	}
	if err := circuit.Validate(); err != nil {
		return nil, err
	}
	if circuit.Qubits > s.maxQubits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyQubits, circuit.Qubits, s.maxQubits)
	}
	state, err := s.evolve(ctx, circuit)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(s.seed, circuit.Stream))
	return sample(state, circuit.Measured(), shots, rng), nil
}

// Probabilities returns |amplitude|^2 for every basis state after the circuit's gates.
func (s *Simulator) Probabilities(ctx context.Context, circuit *Circuit) ([]float64, error) {
	if err := circuit.Validate(); err != nil {
		return nil, err
	}
	if circuit.Qubits > s.maxQubits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyQubits, circuit.Qubits, s.maxQubits)
	}

	state, err := s.evolve(ctx, circuit)
	if err != nil {
		return nil, err
	}
	probs := make([]float64, len(state))
	for i, a := range state {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs, nil
}

// evolve applies the circuit's gates to |0...0>, stopping early when ctx is done.
func (s *Simulator) evolve(ctx context.Context, circuit *Circuit) ([]complex128, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state := make([]complex128, 1<<circuit.Qubits)
	state[0] = 1

	for i, op := range circuit.Ops {
		if i > 0 && i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		switch op.Gate {
		case GateH:
			applyH(state, op.Qubits[0])
		case GateZPow:
			applyZPow(state, op.Qubits[0], op.Param)
		case GateZZPow:
			applyZZPow(state, op.Qubits[0], op.Qubits[1], op.Param)
		case GateRx:
			applyRx(state, op.Qubits[0], op.Param)
		case GateMeasure:
			// sampled after evolution
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return state, nil
}

func applyH(state []complex128, q int) {
	mask := 1 << q
	inv := complex(1/math.Sqrt2, 0)
	for i := range state {
		if i&mask != 0 {
			continue
		}
		a, b := state[i], state[i|mask]
		state[i] = (a + b) * inv
		state[i|mask] = (a - b) * inv
	}
}

func applyZPow(state []complex128, q int, t float64) {
	if t == 0 {
		return
	}
	mask := 1 << q
	phase := cmplx.Exp(complex(0, math.Pi*t))
	for i := range state {
		if i&mask != 0 {
			state[i] *= phase
		}
	}
}

func applyZZPow(state []complex128, a, b int, t float64) {
	if t == 0 {
		return
	}
	ma, mb := 1<<a, 1<<b
	phase := cmplx.Exp(complex(0, math.Pi*t))
	for i := range state {
		if (i&ma != 0) != (i&mb != 0) {
			state[i] *= phase
		}
	}
}

func applyRx(state []complex128, q int, theta float64) {
	if theta == 0 {
		return
	}
	mask := 1 << q
	c := complex(math.Cos(theta/2), 0)
	ms := complex(0, -math.Sin(theta/2))
	for i := range state {
		if i&mask != 0 {
			continue
		}
		a, b := state[i], state[i|mask]
		state[i] = c*a + ms*b
		state[i|mask] = ms*a + c*b
	}
}

func sample(state []complex128, measured []int, shots int, rng *rand.Rand) Histogram {
	cumulative := make([]float64, len(state))
	total := 0.0
	for i, a := range state {
		total += real(a)*real(a) + imag(a)*imag(a)
		cumulative[i] = total
	}

	positions := make(map[uint64]int)
	hist := Histogram{}

	for shot := 0; shot < shots; shot++ {
		u := rng.Float64() * total
		idx := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > u })
		if idx == len(cumulative) {
			idx = len(cumulative) - 1
		}

		var key uint64
		for j, q := range measured {
			if idx&(1<<q) != 0 {
				key |= 1 << j
			}
		}

		if pos, ok := positions[key]; ok {
			hist[pos].Count++
			continue
		}

		bits := make([]uint8, len(measured))
		for j := range measured {
			if key&(1<<j) != 0 {
				bits[j] = 1
			}
		}
		positions[key] = len(hist)
		hist = append(hist, Outcome{Bits: bits, Count: 1})
	}

	return hist
}
