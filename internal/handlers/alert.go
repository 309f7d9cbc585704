package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/reliefgrid/relief-api/internal/alerting"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/rs/zerolog"
)

const latestAlertsLimit = 6

type AlertHandler struct {
	service alerting.Service
	logger  zerolog.Logger
}

func NewAlertHandler(service alerting.Service, logger zerolog.Logger) *AlertHandler {
	return &AlertHandler{
		service: service,
		logger:  logger.With().Str("handler", "alert").Logger(),
	}
}

func (h *AlertHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input alerting.AlertInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	alert, err := h.service.Ingest(r.Context(), input)
	if err != nil {
		h.logger.Error().Err(err).Msg("alert ingestion failed")
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ListAlertsFilter{
		SubmitterEmail: r.URL.Query().Get("email"),
		Status:         models.AlertStatus(r.URL.Query().Get("status")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	alerts, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list alerts")
		respondServiceError(w, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// Latest returns the most recent alerts for the landing page.
func (h *AlertHandler) Latest(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.List(r.Context(), repository.ListAlertsFilter{Limit: latestAlertsLimit})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list latest alerts")
		respondServiceError(w, err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	alert, err := h.service.Get(r.Context(), mux.Vars(r)["alertID"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.AlertPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	alert, err := h.service.Update(r.Context(), mux.Vars(r)["alertID"], patch)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update alert")
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	alert, err := h.service.Acknowledge(r.Context(), mux.Vars(r)["alertID"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

func (h *AlertHandler) Delete(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Delete(r.Context(), mux.Vars(r)["alertID"])
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to delete alert")
		respondServiceError(w, err)
		return
	}
	if count == 0 {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": count})
}
