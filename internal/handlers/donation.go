package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/reliefgrid/relief-api/internal/donation"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/rs/zerolog"
)

type DonationHandler struct {
	service donation.Service
	logger  zerolog.Logger
}

func NewDonationHandler(service donation.Service, logger zerolog.Logger) *DonationHandler {
	return &DonationHandler{
		service: service,
		logger:  logger.With().Str("handler", "donation").Logger(),
	}
}

// Pledge records a pending donation and, when the processor is
// configured, returns the client secret for payment confirmation.
func (h *DonationHandler) Pledge(w http.ResponseWriter, r *http.Request) {
	var input donation.PledgeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Pledge(r.Context(), input)
	if err != nil {
		h.logger.Error().Err(err).Msg("pledge failed")
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Confirm settles a pledged donation. The payment processor's webhook
// or the client redirect calls this after the payment clears; retries
// are safe.
func (h *DonationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	donationID := mux.Vars(r)["donationID"]

	var payload struct {
		PaymentReference string `json:"payment_reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	payload.PaymentReference = strings.TrimSpace(payload.PaymentReference)

	if err := h.service.Confirm(r.Context(), donationID, payload.PaymentReference); err != nil {
		h.logger.Error().Err(err).Str("donation_id", donationID).Msg("settlement confirmation failed")
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (h *DonationHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), mux.Vars(r)["donationID"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *DonationHandler) ListByAlert(w http.ResponseWriter, r *http.Request) {
	donations, err := h.service.ListByAlert(r.Context(), mux.Vars(r)["alertID"])
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list donations")
		respondServiceError(w, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	writeJSON(w, http.StatusOK, donations)
}
