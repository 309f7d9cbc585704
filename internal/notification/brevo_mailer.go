package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/config"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/rs/zerolog"
)

// BrevoMailer sends alert emails through the Brevo transactional
// email API.
type BrevoMailer struct {
	baseURL     string
	apiKey      string
	senderName  string
	senderEmail string
	alertURL    string
	httpClient  *http.Client
	logger      zerolog.Logger
}

func NewBrevoMailer(cfg config.EmailConfig, logger zerolog.Logger) (*BrevoMailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("email api_key is required")
	}
	if strings.TrimSpace(cfg.SenderEmail) == "" {
		return nil, fmt.Errorf("email sender_email is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &BrevoMailer{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		senderName:  cfg.SenderName,
		senderEmail: cfg.SenderEmail,
		alertURL:    cfg.AlertURL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.With().Str("component", "brevo_mailer").Logger(),
	}, nil
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// SendAlert dispatches the active-alert email. Recipients that do not
// parse as addresses are skipped; an empty remaining list is not an
// error, the send is simply skipped.
func (m *BrevoMailer) SendAlert(ctx context.Context, alert models.Alert, recipients []string) error {
	valid := sanitizeRecipients(recipients)
	if len(valid) == 0 {
		m.logger.Info().Str("alert_id", alert.ID).Msg("no valid recipients, skipping alert email")
		return nil
	}
	if skipped := len(recipients) - len(valid); skipped > 0 {
		m.logger.Warn().Int("skipped", skipped).Msg("invalid recipient addresses dropped")
	}

	to := make([]brevoAddress, 0, len(valid))
	for _, email := range valid {
		to = append(to, brevoAddress{Email: email})
	}

	payload := brevoPayload{
		Sender:      brevoAddress{Name: m.senderName, Email: m.senderEmail},
		To:          to,
		Subject:     fmt.Sprintf("Active Disaster Alert: %s", alert.Headline),
		HTMLContent: m.renderBody(alert),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal email payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create email request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send alert email")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.Errorf("email provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	m.logger.Info().
		Str("alert_id", alert.ID).
		Int("recipients", len(valid)).
		Msg("alert email sent")
	return nil
}

func (m *BrevoMailer) renderBody(alert models.Alert) string {
	b := strings.Builder{}
	b.WriteString(`<p>A new disaster has been marked as <strong style="color:red;">ACTIVE</strong>.</p>`)
	b.WriteString(fmt.Sprintf("<p><strong>Headline:</strong> %s</p>", alert.Headline))
	b.WriteString(fmt.Sprintf("<p><strong>Type:</strong> %s</p>", alert.Type))
	b.WriteString(fmt.Sprintf("<p><strong>Severity:</strong> %s</p>", alert.Severity))
	b.WriteString(fmt.Sprintf("<p><strong>Location:</strong> %s</p>", alert.Location))
	b.WriteString(fmt.Sprintf("<p><strong>Reported By:</strong> %s (%s)</p>", alert.SubmittedBy.Name, alert.SubmittedBy.Email))
	if m.alertURL != "" {
		b.WriteString(fmt.Sprintf(`<p><a href="%s" style="color:#d9534f;font-weight:bold">View Alert Details</a></p>`, m.alertURL))
	}
	return b.String()
}

func (m *BrevoMailer) String() string {
	return "BrevoMailer"
}
