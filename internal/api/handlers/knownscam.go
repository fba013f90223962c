package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"linkguard/internal/domain/services"
	"linkguard/pkg/logger"
)

// KnownScamHandler handles blocklist administration requests
type KnownScamHandler struct {
	scans  *services.ScanService
	logger *logger.Logger
}

// NewKnownScamHandler creates a new known scam handler
func NewKnownScamHandler(scans *services.ScanService, log *logger.Logger) *KnownScamHandler {
	return &KnownScamHandler{
		scans:  scans,
		logger: log.WithComponent("knownscam-handler"),
	}
}

// AddRequest is the request body for adding a blocklist entry
type AddRequest struct {
	Domain   string `json:"domain"`
	ScamType string `json:"scam_type,omitempty"`
}

// List handles GET /api/v1/admin/known-scams
func (h *KnownScamHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.scans.ListKnownScams(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list known scams")
		h.respondError(w, http.StatusInternalServerError, "failed to list known scams")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// Add handles POST /api/v1/admin/known-scams
func (h *KnownScamHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Domain == "" {
		h.respondError(w, http.StatusBadRequest, "domain is required")
		return
	}

	entry, err := h.scans.AddKnownScam(r.Context(), req.Domain, req.ScamType)
	if err != nil {
		h.logger.Error().Err(err).Str("domain", req.Domain).Msg("failed to add known scam")
		h.respondError(w, http.StatusInternalServerError, "failed to add known scam")
		return
	}

	h.respondJSON(w, http.StatusCreated, entry)
}

// Delete handles DELETE /api/v1/admin/known-scams/{domain}
func (h *KnownScamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	if domain == "" {
		h.respondError(w, http.StatusBadRequest, "domain is required")
		return
	}

	if err := h.scans.RemoveKnownScam(r.Context(), domain); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			h.respondError(w, http.StatusNotFound, "domain not found")
			return
		}
		h.logger.Error().Err(err).Str("domain", domain).Msg("failed to delete known scam")
		h.respondError(w, http.StatusInternalServerError, "failed to delete known scam")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "domain": domain})
}

func (h *KnownScamHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *KnownScamHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
