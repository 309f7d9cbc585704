package notification

import (
	"context"
	"net/mail"
	"strings"

	"github.com/reliefgrid/relief-api/internal/models"
)

// AlertMailer delivers an alert email to a list of recipients. Delivery
// is best-effort from the caller's point of view; failures never roll
// back alert state.
type AlertMailer interface {
	SendAlert(ctx context.Context, alert models.Alert, recipients []string) error
}

// sanitizeRecipients trims, drops empties, and filters out addresses
// that do not parse.
func sanitizeRecipients(recipients []string) []string {
	var cleaned []string
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		if recipient == "" {
			continue
		}
		if _, err := mail.ParseAddress(recipient); err != nil {
			continue
		}
		cleaned = append(cleaned, recipient)
	}
	return cleaned
}
