package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gorilla/mux"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/rs/zerolog"
)

// ContentHandler serves the supporting collections: rescuer profiles,
// relief resources and safety guidance articles.
type ContentHandler struct {
	contents repository.ContentRepository
	logger   zerolog.Logger
}

func NewContentHandler(contents repository.ContentRepository, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		contents: contents,
		logger:   logger.With().Str("handler", "content").Logger(),
	}
}

func (h *ContentHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.contents.ListProfiles(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list profiles")
		respondServiceError(w, err)
		return
	}
	if profiles == nil {
		profiles = []models.RescuerProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ContentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.contents.GetProfileByEmail(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ContentHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.RescuerProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	profile.Name = strings.TrimSpace(profile.Name)
	profile.Email = strings.TrimSpace(profile.Email)
	if profile.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := mail.ParseAddress(profile.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	created, err := h.contents.CreateProfile(r.Context(), profile)
	if err != nil {
		h.logger.Error().Err(err).Str("email", profile.Email).Msg("failed to create profile")
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ContentHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.contents.ListResources(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list resources")
		respondServiceError(w, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

func (h *ContentHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status   string `json:"status"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Status == "" && payload.Location == "" {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	resource, err := h.contents.UpdateResource(r.Context(), mux.Vars(r)["resourceID"], payload.Status, payload.Location)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (h *ContentHandler) ListSafetyContents(w http.ResponseWriter, r *http.Request) {
	contents, err := h.contents.ListSafetyContents(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list safety contents")
		respondServiceError(w, err)
		return
	}
	if contents == nil {
		contents = []models.SafetyContent{}
	}
	writeJSON(w, http.StatusOK, contents)
}
