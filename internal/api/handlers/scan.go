package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"linkguard/internal/domain/models"
	"linkguard/internal/domain/services"
	"linkguard/pkg/logger"
)

// ScanHandler handles URL scanning API requests
type ScanHandler struct {
	scans  *services.ScanService
	logger *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scans *services.ScanService, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		scans:  scans,
		logger: log.WithComponent("scan-handler"),
	}
}

// Scan handles POST /api/v1/scan
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := h.scans.Scan(r.Context(), req.URL)
	if err != nil {
		h.logger.Error().Err(err).Str("url", req.URL).Msg("failed to scan URL")
		h.respondError(w, http.StatusInternalServerError, "failed to scan URL")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/scan/{id}
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	result, err := h.scans.GetScan(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("scan_id", id.String()).Msg("failed to get scan")
		h.respondError(w, http.StatusInternalServerError, "failed to get scan")
		return
	}
	if result == nil {
		h.respondError(w, http.StatusNotFound, "scan not found")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Stats handles GET /api/v1/stats
func (h *ScanHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scans.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get scan stats")
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	h.respondJSON(w, http.StatusOK, stats)
}

// Report handles POST /api/v1/report
func (h *ScanHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	report, err := h.scans.Report(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Str("url", req.URL).Msg("failed to record report")
		h.respondError(w, http.StatusInternalServerError, "failed to record report")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":    "received",
		"report_id": report.ID.String(),
		"message":   "Thank you for your report. It will be reviewed.",
	})
}

func (h *ScanHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *ScanHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
