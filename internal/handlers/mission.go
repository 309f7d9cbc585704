package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/reliefgrid/relief-api/internal/alerting"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/rs/zerolog"
)

const missionGeocodeTimeout = 5 * time.Second

// MissionHandler manages rescuer assignments. Mission locations go
// through the same geocoder as alerts; a failed resolution leaves the
// coordinates empty rather than failing the request.
type MissionHandler struct {
	missions repository.MissionRepository
	geocoder alerting.Geocoder
	logger   zerolog.Logger
}

func NewMissionHandler(missions repository.MissionRepository, geocoder alerting.Geocoder, logger zerolog.Logger) *MissionHandler {
	return &MissionHandler{
		missions: missions,
		geocoder: geocoder,
		logger:   logger.With().Str("handler", "mission").Logger(),
	}
}

func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var mission models.Mission
	if err := json.NewDecoder(r.Body).Decode(&mission); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	mission.Title = strings.TrimSpace(mission.Title)
	mission.Location = strings.TrimSpace(mission.Location)
	if mission.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if mission.Location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}
	if _, err := mail.ParseAddress(mission.AssigneeEmail); err != nil {
		writeError(w, http.StatusBadRequest, "a valid assignee email is required")
		return
	}
	if mission.Status == "" {
		mission.Status = models.MissionStatusPending
	}

	geoCtx, cancel := context.WithTimeout(r.Context(), missionGeocodeTimeout)
	coords, err := h.geocoder.Resolve(geoCtx, mission.Location)
	cancel()
	if err != nil {
		h.logger.Warn().Err(err).Str("location", mission.Location).Msg("mission location unresolved")
	} else {
		mission.Coordinates = coords
	}

	created, err := h.missions.Create(r.Context(), mission)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create mission")
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *MissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	mission, err := h.missions.Get(r.Context(), mux.Vars(r)["missionID"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mission)
}

func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	missions, err := h.missions.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list missions")
		respondServiceError(w, err)
		return
	}
	if missions == nil {
		missions = []models.Mission{}
	}
	writeJSON(w, http.StatusOK, missions)
}

func (h *MissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.MissionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	mission, err := h.missions.Update(r.Context(), mux.Vars(r)["missionID"], patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mission)
}
