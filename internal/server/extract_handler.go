// Package server provides the HTTP API for the day supply engine.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daysupplynational/daysupply/internal/extractor"
	"github.com/daysupplynational/daysupply/internal/history"
	"github.com/daysupplynational/daysupply/internal/metrics"
)

const (
	// maxBatchSize bounds a single batch request.
	maxBatchSize = 100
	// maxHistoryLimit bounds a single history page.
	maxHistoryLimit = 500
)

// ExtractHandler handles extraction endpoints.
type ExtractHandler struct {
	extractor *extractor.Extractor
	repo      history.Repository
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewExtractHandler creates a new handler. repo may be nil to disable
// extraction history.
func NewExtractHandler(ex *extractor.Extractor, repo history.Repository, m *metrics.Metrics, logger *slog.Logger) *ExtractHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractHandler{
		extractor: ex,
		repo:      repo,
		metrics:   m,
		logger:    logger,
	}
}

// Routes returns the handler routes.
func (h *ExtractHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/extract", h.Extract)
	r.Post("/extract/batch", h.ExtractBatch)
	r.Get("/history", h.History)
	return r
}

// Extract handles POST /v1/extract.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var input extractor.PrescriptionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if input.DrugName == "" {
		h.jsonError(w, "drugName is required", http.StatusBadRequest)
		return
	}

	result := h.process(r, input)
	h.writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Prescriptions []extractor.PrescriptionInput `json:"prescriptions"`
}

type batchResponse struct {
	Results []extractor.ExtractedData `json:"results"`
}

// ExtractBatch handles POST /v1/extract/batch.
func (h *ExtractHandler) ExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Prescriptions) == 0 {
		h.jsonError(w, "prescriptions is required", http.StatusBadRequest)
		return
	}
	if len(req.Prescriptions) > maxBatchSize {
		h.jsonError(w, "too many prescriptions in one batch", http.StatusBadRequest)
		return
	}

	resp := batchResponse{Results: make([]extractor.ExtractedData, 0, len(req.Prescriptions))}
	for _, input := range req.Prescriptions {
		resp.Results = append(resp.Results, h.process(r, input))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// History handles GET /v1/history.
func (h *ExtractHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.jsonError(w, "extraction history is not enabled", http.StatusNotFound)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxHistoryLimit {
			h.jsonError(w, "limit must be a positive integer no greater than 500", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list extraction history", slog.Any("error", err))
		h.jsonError(w, "failed to list extraction history", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *ExtractHandler) process(r *http.Request, input extractor.PrescriptionInput) extractor.ExtractedData {
	start := time.Now()
	result := h.extractor.Extract(r.Context(), input)
	h.observe(result, time.Since(start))

	if h.repo != nil {
		if err := h.repo.Save(r.Context(), historyEntry(input, result)); err != nil {
			h.logger.Warn("failed to record extraction",
				slog.Any("error", err),
				slog.String("drug_name", input.DrugName),
				slog.String("request_id", GetRequestID(r.Context())))
		}
	}
	return result
}

func (h *ExtractHandler) observe(result extractor.ExtractedData, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.ExtractionsTotal.WithLabelValues(string(result.Category)).Inc()
	h.metrics.ExtractionDuration.Observe(duration.Seconds())
	h.metrics.ExtractionWarnings.Add(float64(len(result.Warnings)))
	if result.MatchedName == nil {
		h.metrics.ExtractionsUnmatched.Inc()
	}
	if slices.Contains(result.Warnings, extractor.DegradedCalculationWarning) {
		h.metrics.ExtractionsDegraded.Inc()
	}
}

func historyEntry(input extractor.PrescriptionInput, result extractor.ExtractedData) *history.Entry {
	entry := &history.Entry{
		DrugName:               input.DrugName,
		Category:               string(result.Category),
		Quantity:               input.Quantity.Value,
		CorrectedQuantity:      result.CorrectedQuantity,
		DaySupply:              result.DaySupply,
		Directions:             input.Directions,
		StandardizedDirections: result.StandardizedDirections,
		Confidence:             result.Confidence,
		Warnings:               history.WarningList(result.Warnings),
	}
	if result.MatchedName != nil {
		entry.MatchedName.String = *result.MatchedName
		entry.MatchedName.Valid = true
	}
	return entry
}

func (h *ExtractHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *ExtractHandler) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
