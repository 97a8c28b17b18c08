// Package handlers provides the HTTP surface for portfolio selection.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantpick/internal/clients/objectstore"
	"github.com/aristath/quantpick/internal/modules/quantum"
	"github.com/aristath/quantpick/internal/modules/selection"
	"github.com/aristath/quantpick/internal/modules/statistics"
)

// DefaultLookbackDays is used by history requests that omit lookback_days
const DefaultLookbackDays = 365

// Selector runs a portfolio selection
type Selector interface {
	Select(ctx context.Context, p selection.Problem, params selection.Params) (*selection.Result, error)
}

// ObjectSource fetches price files by key
type ObjectSource interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Config holds request limits
type Config struct {
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Handler handles selection HTTP requests
type Handler struct {
	selector Selector
	provider *statistics.Provider
	objects  ObjectSource
	cfg      Config
	log      zerolog.Logger
}

// NewHandler creates a selection handler. objects may be nil when no object store is configured.
func NewHandler(
	selector Selector,
	provider *statistics.Provider,
	objects ObjectSource,
	cfg Config,
	log zerolog.Logger,
) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	return &Handler{
		selector: selector,
		provider: provider,
		objects:  objects,
		cfg:      cfg,
		log:      log.With().Str("handler", "selection").Logger(),
	}
}

// OptimizeResponse is returned by every optimize endpoint
type OptimizeResponse struct {
	Picks        []string         `json:"picks"`
	Filename     string           `json:"filename,omitempty"`
	Key          string           `json:"key,omitempty"`
	Parameters   selection.Params `json:"parameters"`
	RunID        string           `json:"run_id"`
	Source       selection.Source `json:"source"`
	BestScore    *float64         `json:"best_score"`
	Evaluations  int              `json:"evaluations"`
	Observations int              `json:"observations,omitempty"`
}

// StatsRequest optimizes over caller-supplied statistics
type StatsRequest struct {
	Mu      []float64   `json:"mu"`
	Cov     [][]float64 `json:"cov"`
	Tickers []string    `json:"tickers"`
	selection.Params
}

// HistoryRequest optimizes over stored price history
type HistoryRequest struct {
	Tickers      []string `json:"tickers"`
	LookbackDays int      `json:"lookback_days"`
	selection.Params
}

// ObjectRequest optimizes over a CSV stored in the object store
type ObjectRequest struct {
	Key string `json:"key"`
	selection.Params
}

// HandleOptimizeToday handles POST /optimize/today with a multipart CSV upload
func (h *Handler) HandleOptimizeToday(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large. Maximum upload size is %d bytes.", h.cfg.MaxUploadBytes))
			return
		}
		h.writeError(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		// a file part without a filename is parsed as a plain value
		if len(r.MultipartForm.Value["file"]) > 0 {
			h.writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		h.writeError(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !allowedFile(header.Filename) {
		h.writeError(w, http.StatusBadRequest, "File type not allowed. Only CSV files are supported.")
		return
	}

	params, err := formParams(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid parameter values. All parameters must be integers.")
		return
	}

	tempPath, err := saveTemp(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to save upload")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.Remove(tempPath)

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	stats, err := h.provider.FromFile(ctx, tempPath)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	result, err := h.selector.Select(ctx, stats.Problem(), params)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp := newResponse(result, params, stats.Observations)
	resp.Filename = filepath.Base(header.Filename)
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleOptimizeStats handles POST /api/optimize/stats
func (h *Handler) HandleOptimizeStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	p := selection.Problem{Mu: req.Mu, Cov: req.Cov, Tickers: req.Tickers}
	result, err := h.selector.Select(ctx, p, req.Params)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newResponse(result, req.Params, 0))
}

// HandleOptimizeHistory handles POST /api/optimize/history
func (h *Handler) HandleOptimizeHistory(w http.ResponseWriter, r *http.Request) {
	var req HistoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.LookbackDays == 0 {
		req.LookbackDays = DefaultLookbackDays
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	stats, err := h.provider.FromHistory(ctx, req.Tickers, req.LookbackDays)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	result, err := h.selector.Select(ctx, stats.Problem(), req.Params)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newResponse(result, req.Params, stats.Observations))
}

// HandleOptimizeObject handles POST /api/optimize/object
func (h *Handler) HandleOptimizeObject(w http.ResponseWriter, r *http.Request) {
	var req ObjectRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Key == "" {
		h.writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if !allowedFile(req.Key) {
		h.writeError(w, http.StatusBadRequest, "File type not allowed. Only CSV files are supported.")
		return
	}
	if h.objects == nil {
		h.writeFailure(w, objectstore.ErrNotConfigured)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	data, err := h.objects.Download(ctx, req.Key)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	stats, err := h.provider.FromReader(ctx, bytes.NewReader(data))
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	result, err := h.selector.Select(ctx, stats.Problem(), req.Params)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	resp := newResponse(result, req.Params, stats.Observations)
	resp.Key = req.Key
	h.writeJSON(w, http.StatusOK, resp)
}

func newResponse(result *selection.Result, params selection.Params, observations int) OptimizeResponse {
	return OptimizeResponse{
		Picks:        result.Picks,
		Parameters:   params,
		RunID:        result.RunID,
		Source:       result.Source,
		BestScore:    result.BestScore(),
		Evaluations:  result.Evaluations,
		Observations: observations,
	}
}

func allowedFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

func formParams(r *http.Request) (selection.Params, error) {
	var p selection.Params
	fields := []struct {
		name string
		dst  *int
	}{
		{"budget", &p.Budget},
		{"depth", &p.Depth},
		{"grid", &p.Grid},
		{"shots", &p.Shots},
	}
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(f.name)))
		if err != nil {
			return p, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return p, nil
}

func saveTemp(src io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "quantpick-upload-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmp.Name(), nil
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, selection.ErrInvalidParameter),
		errors.Is(err, selection.ErrDimensionMismatch),
		errors.Is(err, selection.ErrSearchTooLarge),
		errors.Is(err, statistics.ErrInvalidPrices),
		errors.Is(err, quantum.ErrTooManyQubits):
		return http.StatusBadRequest
	case errors.Is(err, selection.ErrDegenerateAsset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, objectstore.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, objectstore.ErrNotConfigured),
		errors.Is(err, statistics.ErrHistoryUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Optimization failed")
	} else {
		h.log.Warn().Err(err).Int("status", status).Msg("Optimization rejected")
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
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
