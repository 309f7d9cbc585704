// Package alerting orchestrates the alert ingestion pipeline: validate,
// geocode, persist, broadcast, and (for active alerts) notify by email.
// Only validation and persistence can fail the call; everything after
// the store write is best-effort.
package alerting

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/reliefgrid/relief-api/internal/notification"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/rs/zerolog"
)

// Geocoder resolves a free-text location to a coordinate pair. A
// resolution failure is never fatal to ingestion.
type Geocoder interface {
	Resolve(ctx context.Context, location string) (*models.Coordinate, error)
}

// Broadcaster fans a persisted alert out to connected viewers.
type Broadcaster interface {
	Publish(alert models.Alert)
}

// AlertInput is the raw report submitted by a user.
type AlertInput struct {
	Headline       string               `json:"headline"`
	Type           string               `json:"type"`
	Severity       models.AlertSeverity `json:"severity"`
	Location       string               `json:"location"`
	Status         models.AlertStatus   `json:"status"`
	SubmittedBy    models.Reporter      `json:"submitted_by"`
	DonationNeeded bool                 `json:"donation_needed"`
}

type Service interface {
	Ingest(ctx context.Context, input AlertInput) (models.Alert, error)
	Acknowledge(ctx context.Context, id string) (models.Alert, error)
	Get(ctx context.Context, id string) (models.Alert, error)
	List(ctx context.Context, filter repository.ListAlertsFilter) ([]models.Alert, error)
	Update(ctx context.Context, id string, patch models.AlertPatch) (models.Alert, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type service struct {
	alerts         repository.AlertRepository
	users          repository.UserRepository
	geocoder       Geocoder
	mailer         notification.AlertMailer
	bus            Broadcaster
	geocodeTimeout time.Duration
	emailTimeout   time.Duration
	logger         zerolog.Logger
}

func NewService(
	alerts repository.AlertRepository,
	users repository.UserRepository,
	geocoder Geocoder,
	mailer notification.AlertMailer,
	bus Broadcaster,
	geocodeTimeout, emailTimeout time.Duration,
	logger zerolog.Logger,
) Service {
	if geocodeTimeout == 0 {
		geocodeTimeout = 5 * time.Second
	}
	if emailTimeout == 0 {
		emailTimeout = 10 * time.Second
	}
	return &service{
		alerts:         alerts,
		users:          users,
		geocoder:       geocoder,
		mailer:         mailer,
		bus:            bus,
		geocodeTimeout: geocodeTimeout,
		emailTimeout:   emailTimeout,
		logger:         logger.With().Str("component", "alerting").Logger(),
	}
}

// Ingest runs the full pipeline. The returned alert is the persisted
// record; broadcast and email outcomes do not affect the result.
func (s *service) Ingest(ctx context.Context, input AlertInput) (models.Alert, error) {
	if err := validateInput(input); err != nil {
		return models.Alert{}, err
	}

	status := input.Status
	if status == "" {
		status = models.AlertStatusPending
	}
	if !models.ValidAlertStatus(status) {
		return models.Alert{}, apperr.Validationf("unknown alert status %q", status)
	}

	alert := models.Alert{
		Headline:       strings.TrimSpace(input.Headline),
		Type:           strings.TrimSpace(input.Type),
		Severity:       input.Severity,
		Location:       strings.TrimSpace(input.Location),
		Status:         status,
		SubmittedBy:    input.SubmittedBy,
		DonationNeeded: input.DonationNeeded,
	}
	if alert.Severity == "" {
		alert.Severity = models.AlertSeverityLow
	}

	// Geocoding is enrichment, not a precondition: unresolved locations
	// leave the coordinate pair absent.
	geoCtx, cancel := context.WithTimeout(ctx, s.geocodeTimeout)
	coord, err := s.geocoder.Resolve(geoCtx, alert.Location)
	cancel()
	if err != nil {
		s.logger.Warn().Err(err).Str("location", alert.Location).Msg("geocoding unresolved, continuing without coordinates")
	} else {
		alert.Coordinates = coord
	}

	persisted, err := s.alerts.Create(ctx, alert)
	if err != nil {
		return models.Alert{}, errors.WithMessage(err, "persist alert")
	}

	// Subscribers only ever see alerts that are already durably stored.
	s.bus.Publish(persisted)

	if persisted.Status == models.AlertStatusActive {
		s.notifyRecipients(ctx, persisted)
	}

	return persisted, nil
}

// notifyRecipients emails all registered users about an active alert.
// Failures are logged and swallowed; the alert is already persisted
// and broadcast.
func (s *service) notifyRecipients(ctx context.Context, alert models.Alert) {
	if s.mailer == nil {
		s.logger.Info().Str("alert_id", alert.ID).Msg("no mailer configured, skipping alert email")
		return
	}
	emails, err := s.users.ListEmails(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to load notification recipients")
		return
	}
	if len(emails) == 0 {
		s.logger.Info().Str("alert_id", alert.ID).Msg("no registered recipients, skipping alert email")
		return
	}

	mailCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
	defer cancel()
	if err := s.mailer.SendAlert(mailCtx, alert, emails); err != nil {
		s.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("alert email delivery failed")
	}
}

func (s *service) Acknowledge(ctx context.Context, id string) (models.Alert, error) {
	if strings.TrimSpace(id) == "" {
		return models.Alert{}, apperr.Validation("alert id is required")
	}
	return s.alerts.Acknowledge(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (models.Alert, error) {
	return s.alerts.Get(ctx, id)
}

func (s *service) List(ctx context.Context, filter repository.ListAlertsFilter) ([]models.Alert, error) {
	return s.alerts.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, patch models.AlertPatch) (models.Alert, error) {
	if patch.Status != nil && !models.ValidAlertStatus(*patch.Status) {
		return models.Alert{}, apperr.Validationf("unknown alert status %q", *patch.Status)
	}
	return s.alerts.Update(ctx, id, patch)
}

func (s *service) Delete(ctx context.Context, id string) (int64, error) {
	return s.alerts.Delete(ctx, id)
}

func validateInput(input AlertInput) error {
	if strings.TrimSpace(input.Headline) == "" {
		return apperr.Validation("headline is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return apperr.Validation("location is required")
	}
	if strings.TrimSpace(input.SubmittedBy.Name) == "" || strings.TrimSpace(input.SubmittedBy.Email) == "" {
		return apperr.Validation("submitted_by name and email are required")
	}
	return nil
}
