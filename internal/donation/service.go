// Package donation implements the two-phase donation ledger: a pledge
// records intent without touching the alert, and a later settlement
// confirmation rolls the cleared amount into the alert's running total.
package donation

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/rs/zerolog"
)

// IntentCreator registers a payment intent with the processor so the
// donor can confirm the payment out-of-band.
type IntentCreator interface {
	Configured() bool
	CreateIntent(ctx context.Context, donationID string, amountCents int64, receiptEmail, alertID string) (models.PaymentIntent, error)
}

// PledgeInput is a donor's stated intent to give.
type PledgeInput struct {
	DonorName  string    `json:"donor_name"`
	DonorEmail string    `json:"donor_email"`
	AlertID    string    `json:"alert_id"`
	Amount     int64     `json:"amount"`
	PledgeDate time.Time `json:"pledge_date"`
}

// PledgeResult is the recorded pending donation plus, when the
// processor is configured, the client secret for confirming payment.
type PledgeResult struct {
	Donation     models.Donation `json:"donation"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

type Service interface {
	Pledge(ctx context.Context, input PledgeInput) (PledgeResult, error)
	// Confirm settles a donation. It is idempotent: confirming an
	// already-completed donation is a no-op success, so webhook
	// redeliveries are safe.
	Confirm(ctx context.Context, donationID, paymentReference string) error
	Get(ctx context.Context, id string) (models.Donation, error)
	ListByAlert(ctx context.Context, alertID string) ([]models.Donation, error)
}

type service struct {
	donations repository.DonationRepository
	alerts    repository.AlertRepository
	payments  IntentCreator
	logger    zerolog.Logger
}

func NewService(
	donations repository.DonationRepository,
	alerts repository.AlertRepository,
	payments IntentCreator,
	logger zerolog.Logger,
) Service {
	return &service{
		donations: donations,
		alerts:    alerts,
		payments:  payments,
		logger:    logger.With().Str("component", "donation").Logger(),
	}
}

// Pledge records a pending donation against an existing alert. The
// alert's public totals are untouched until settlement confirms.
func (s *service) Pledge(ctx context.Context, input PledgeInput) (PledgeResult, error) {
	if strings.TrimSpace(input.DonorName) == "" || strings.TrimSpace(input.DonorEmail) == "" {
		return PledgeResult{}, apperr.Validation("donor name and email are required")
	}
	if input.Amount <= 0 {
		return PledgeResult{}, apperr.Validation("amount must be positive")
	}
	if strings.TrimSpace(input.AlertID) == "" {
		return PledgeResult{}, apperr.Validation("alert_id is required")
	}

	alert, err := s.alerts.Get(ctx, input.AlertID)
	if err != nil {
		return PledgeResult{}, err
	}

	pledgeDate := input.PledgeDate
	if pledgeDate.IsZero() {
		pledgeDate = time.Now().UTC()
	}

	donation, err := s.donations.Create(ctx, models.Donation{
		DonorName:     strings.TrimSpace(input.DonorName),
		DonorEmail:    strings.TrimSpace(input.DonorEmail),
		AlertID:       alert.ID,
		AlertHeadline: alert.Headline,
		Amount:        input.Amount,
		PledgeDate:    pledgeDate,
	})
	if err != nil {
		return PledgeResult{}, errors.WithMessage(err, "record pledge")
	}

	result := PledgeResult{Donation: donation}

	// Intent creation is an auxiliary effect: the pledge stands even
	// when the processor is down, and the client may retry payment
	// later.
	if s.payments != nil && s.payments.Configured() {
		intent, err := s.payments.CreateIntent(ctx, donation.ID, donation.Amount, donation.DonorEmail, donation.AlertID)
		if err != nil {
			s.logger.Warn().Err(err).Str("donation_id", donation.ID).Msg("payment intent creation failed, pledge recorded without intent")
		} else {
			result.ClientSecret = intent.ClientSecret
		}
	}

	return result, nil
}

// Confirm marks the donation completed and applies the atomic roll-up
// to the target alert. If the roll-up fails after the donation was
// completed, the inconsistency is logged for operator reconciliation
// and NOT retried: a blind retry could double-count a donation whose
// write succeeded but whose response was lost.
func (s *service) Confirm(ctx context.Context, donationID, paymentReference string) error {
	if strings.TrimSpace(donationID) == "" {
		return apperr.Validation("donation id is required")
	}
	if strings.TrimSpace(paymentReference) == "" {
		return apperr.Validation("payment reference is required")
	}

	donation, err := s.donations.Get(ctx, donationID)
	if err != nil {
		return err
	}
	if donation.Status == models.DonationStatusCompleted {
		s.logger.Info().Str("donation_id", donation.ID).Msg("donation already settled, confirmation is a no-op")
		return nil
	}

	transitioned, err := s.donations.MarkCompleted(ctx, donation.ID, paymentReference)
	if err != nil {
		return errors.WithMessage(err, "mark donation completed")
	}
	if !transitioned {
		// Raced with a concurrent confirmation that already rolled up.
		s.logger.Info().Str("donation_id", donation.ID).Msg("donation settled concurrently, skipping roll-up")
		return nil
	}

	entry := models.DonorEntry{
		Name:   donation.DonorName,
		Email:  donation.DonorEmail,
		Amount: donation.Amount,
		Date:   donation.PledgeDate,
	}
	if _, err := s.alerts.ApplyDonation(ctx, donation.AlertID, donation.Amount, entry); err != nil {
		// The donation is legitimately settled; only the alert-side
		// aggregate is stale. Surface it to operators, succeed to the
		// caller.
		s.logger.Error().
			Err(err).
			Bool("reconciliation", true).
			Str("donation_id", donation.ID).
			Str("alert_id", donation.AlertID).
			Str("payment_reference", paymentReference).
			Int64("amount", donation.Amount).
			Msg("donation settled but alert roll-up failed, manual reconciliation required")
	}

	return nil
}

func (s *service) Get(ctx context.Context, id string) (models.Donation, error) {
	return s.donations.Get(ctx, id)
}

func (s *service) ListByAlert(ctx context.Context, alertID string) ([]models.Donation, error) {
	return s.donations.ListByAlert(ctx, alertID)
}
