// Package handlers provides HTTP handlers for price history and return statistics.
package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/quantpick/internal/events"
	"github.com/aristath/quantpick/internal/modules/statistics"
)

// Handler handles statistics HTTP requests
type Handler struct {
	provider       *statistics.Provider
	bus            *events.Bus
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewHandler creates a statistics handler. bus may be nil.
func NewHandler(provider *statistics.Provider, bus *events.Bus, maxUploadBytes int64, log zerolog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 << 20
	}
	return &Handler{
		provider:       provider,
		bus:            bus,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("handler", "statistics").Logger(),
	}
}

// HandleImport handles POST /api/history/import
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	file, ok := h.csvUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	frame, written, err := h.provider.Import(r.Context(), file)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.bus.Emit(&events.HistoryImportedData{Tickers: len(frame.Tickers), Rows: written})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tickers": frame.Tickers,
		"dates":   frame.Rows(),
		"rows":    written,
	})
}

// HandleTickers handles GET /api/history/tickers
func (h *Handler) HandleTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.provider.Tickers(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"tickers": tickers})
}

// HandleCompute handles POST /api/statistics with a multipart CSV upload
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	file, ok := h.csvUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	stats, err := h.provider.FromReader(r.Context(), file)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) csvUpload(w http.ResponseWriter, r *http.Request) (multipart.File, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return nil, false
		}
		h.writeError(w, http.StatusBadRequest, "No file part in the request")
		return nil, false
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		file.Close()
		h.writeError(w, http.StatusBadRequest, "File type not allowed. Only CSV files are supported.")
		return nil, false
	}
	return file, true
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, statistics.ErrInvalidPrices):
		status = http.StatusBadRequest
	case errors.Is(err, statistics.ErrHistoryUnavailable):
		status = http.StatusServiceUnavailable
	default:
		h.log.Error().Err(err).Msg("Statistics request failed")
	}
	h.writeError(w, status, err.Error())
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
