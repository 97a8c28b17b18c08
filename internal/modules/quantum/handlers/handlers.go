// Package handlers exposes the circuit simulator over HTTP for inspecting individual
// portfolio circuits.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantpick/internal/modules/quantum"
	"github.com/aristath/quantpick/internal/modules/selection"
)

// MaxShots bounds a single sampling request
const MaxShots = 1_000_000

const defaultMaxBodyBytes = 1 << 20

// Config bounds the work a single request may ask for
type Config struct {
	MaxBodyBytes int64 // defaults to 1 MiB
	MaxDepth     int   // maximum number of layers; 0 disables the ceiling
}

// Handler handles quantum HTTP requests
type Handler struct {
	simulator *quantum.Simulator
	cfg       Config
	log       zerolog.Logger
}

// NewHandler creates a new quantum handler
func NewHandler(simulator *quantum.Simulator, cfg Config, log zerolog.Logger) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		simulator: simulator,
		cfg:       cfg,
		log:       log.With().Str("handler", "quantum").Logger(),
	}
}

// CircuitRequest describes a portfolio circuit with explicit per-layer angles
type CircuitRequest struct {
	Mu     []float64   `json:"mu"`
	Cov    [][]float64 `json:"cov"`
	Gammas []float64   `json:"gammas"`
	Betas  []float64   `json:"betas"`
}

// SampleRequest is a circuit plus sampling parameters
type SampleRequest struct {
	CircuitRequest
	Shots  int    `json:"shots"`
	Stream uint64 `json:"stream"`
}

// OutcomeResponse is one histogram bucket
type OutcomeResponse struct {
	Bits  string `json:"bits"`
	Count int    `json:"count"`
}

// ProbabilityResponse is the exact probability of one basis state
type ProbabilityResponse struct {
	Bits        string  `json:"bits"`
	Probability float64 `json:"probability"`
}

// HandleSample handles POST /api/quantum/sample
func (h *Handler) HandleSample(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Shots < 1 || req.Shots > MaxShots {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("shots must be between 1 and %d", MaxShots))
		return
	}

	circuit, ok := h.buildCircuit(w, req.CircuitRequest)
	if !ok {
		return
	}
	circuit.Stream = req.Stream

	hist, err := h.simulator.Run(r.Context(), circuit, req.Shots)
	if err != nil {
		h.writeSimulatorError(w, err)
		return
	}

	outcomes := make([]OutcomeResponse, len(hist))
	for i, o := range hist {
		outcomes[i] = OutcomeResponse{Bits: o.String(), Count: o.Count}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"qubits":    circuit.Qubits,
			"gates":     circuit.CountGates(),
			"shots":     req.Shots,
			"stream":    req.Stream,
			"histogram": outcomes,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleProbabilities handles POST /api/quantum/probabilities
func (h *Handler) HandleProbabilities(w http.ResponseWriter, r *http.Request) {
	var req CircuitRequest
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	circuit, ok := h.buildCircuit(w, req)
	if !ok {
		return
	}

	probs, err := h.simulator.Probabilities(r.Context(), circuit)
	if err != nil {
		h.writeSimulatorError(w, err)
		return
	}

	states := make([]ProbabilityResponse, 0, len(probs))
	for idx, p := range probs {
		if p < 1e-12 {
			continue
		}
		states = append(states, ProbabilityResponse{Bits: basisString(idx, circuit.Qubits), Probability: p})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"qubits": circuit.Qubits,
			"states": states,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) buildCircuit(w http.ResponseWriter, req CircuitRequest) (*quantum.Circuit, bool) {
	if h.cfg.MaxDepth > 0 && (len(req.Gammas) > h.cfg.MaxDepth || len(req.Betas) > h.cfg.MaxDepth) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d layers are allowed", h.cfg.MaxDepth))
		return nil, false
	}
	circuit, err := selection.BuildCircuit(req.Mu, req.Cov, req.Gammas, req.Betas)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if circuit.Qubits == 0 {
		h.writeError(w, http.StatusBadRequest, "mu must not be empty")
		return nil, false
	}
	return circuit, true
}

func (h *Handler) writeSimulatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quantum.ErrTooManyQubits), errors.Is(err, quantum.ErrInvalidCircuit):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.log.Error().Err(err).Msg("Simulation failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// basisString renders basis index idx with qubit 0 first
func basisString(idx, n int) string {
	b := make([]byte, n)
	for q := 0; q < n; q++ {
		if idx&(1<<q) != 0 {
			b[q] = '1'
		} else {
			b[q] = '0'
		}
	}
	return string(b)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
