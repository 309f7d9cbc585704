// Package payment creates payment intents with the processor at pledge
// time. The donor confirms the intent client-side; the processor's
// webhook (or the client redirect) then drives settlement confirmation.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/config"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/rs/zerolog"
)

type IntentClient struct {
	baseURL    string
	secretKey  string
	currency   string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewIntentClient(cfg config.PaymentConfig, logger zerolog.Logger) *IntentClient {
	return &IntentClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With().Str("component", "payment_client").Logger(),
	}
}

// Configured reports whether a processor secret key is present. An
// unconfigured client short-circuits and pledges proceed without an
// intent.
func (c *IntentClient) Configured() bool {
	return c.secretKey != ""
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent registers a payment intent for the donation and returns
// its id and client secret. The amount is in cents. Retrying for the
// same donation sends the same idempotency key, so the processor
// creates at most one intent per pledge.
func (c *IntentClient) CreateIntent(ctx context.Context, donationID string, amountCents int64, receiptEmail, alertID string) (models.PaymentIntent, error) {
	if !c.Configured() {
		return models.PaymentIntent{}, errors.New("payment processor not configured")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", c.currency)
	if receiptEmail != "" {
		form.Set("receipt_email", receiptEmail)
	}
	form.Set("metadata[alert_id]", alertID)
	form.Set("metadata[donation_id]", donationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return models.PaymentIntent{}, errors.Wrap(err, "create payment intent request")
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", intentIdempotencyKey(donationID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.PaymentIntent{}, errors.Wrap(err, "call payment processor")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.PaymentIntent{}, errors.Wrap(err, "read payment processor response")
	}

	var payload intentResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.PaymentIntent{}, errors.Wrap(err, "parse payment processor response")
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if payload.Error != nil {
			msg = payload.Error.Message
		}
		return models.PaymentIntent{}, errors.Errorf("payment processor error: %s", msg)
	}

	c.logger.Info().
		Str("intent_id", payload.ID).
		Int64("amount", amountCents).
		Msg("payment intent created")

	return models.PaymentIntent{ID: payload.ID, ClientSecret: payload.ClientSecret}, nil
}

// intentIdempotencyKey derives a stable key from the donation id, so a
// retried intent creation for the same pledge deduplicates at the
// processor.
func intentIdempotencyKey(donationID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("donation-intent:"+donationID)).String()
}
