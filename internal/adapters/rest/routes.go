package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

const maxBodyBytes = 10 << 20

// handler contains the HTTP handlers and shared dependencies for the REST API.
type handler struct {
	service domain.MeasurementService
}

func registerRoutes(router chi.Router, h *handler) {
	router.Post("/", h.handleCreate)
	router.Get("/", h.handleList)
	router.Post("/bulk_create", h.handleBulkCreate)
	router.Get("/{id}", h.handleGet)
	router.Delete("/{id}", h.handleDelete)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req measurementRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

func (h *handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r.URL.Query().Get)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Measurements == nil {
		writeError(w, r, http.StatusBadRequest, "measurements is required")
		return
	}

	inputs := make([]domain.MeasurementInput, len(req.Measurements))
	for i, m := range req.Measurements {
		inputs[i] = m.toInput()
	}

	res, err := h.service.BulkCreate(r.Context(), inputs)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondServiceError maps NotFound to 404 and every other failure to 400.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	message := strings.ReplaceAll(err.Error(), "\n", "; ")
	if errors.Is(err, domain.ErrMeasurementNotFound) {
		writeError(w, r, http.StatusNotFound, message)
		return
	}
	writeError(w, r, http.StatusBadRequest, message)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	hlog.FromRequest(r).Debug().Int("status", status).Str("error", message).Msg("request rejected")
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
