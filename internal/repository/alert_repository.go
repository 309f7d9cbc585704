package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
)

// ListAlertsFilter narrows and bounds an alert listing. Zero values
// mean "no constraint"; results are always newest-first.
type ListAlertsFilter struct {
	SubmitterEmail string
	Status         models.AlertStatus
	Limit          int
}

type AlertRepository interface {
	Create(ctx context.Context, alert models.Alert) (models.Alert, error)
	Get(ctx context.Context, id string) (models.Alert, error)
	List(ctx context.Context, filter ListAlertsFilter) ([]models.Alert, error)
	Update(ctx context.Context, id string, patch models.AlertPatch) (models.Alert, error)
	Acknowledge(ctx context.Context, id string) (models.Alert, error)
	// ApplyDonation atomically increments the donation total and
	// appends the donor entry in a single statement, so concurrent
	// settlements never lose updates.
	ApplyDonation(ctx context.Context, id string, amount int64, donor models.DonorEntry) (models.Alert, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type alertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) AlertRepository {
	return &alertRepository{db: db}
}

const alertColumns = `id, headline, type, severity, location, latitude, longitude, status,
	submitted_by_name, submitted_by_email, donation_needed, donation_received, donors, created_at`

func (r *alertRepository) Create(ctx context.Context, alert models.Alert) (models.Alert, error) {
	query := `
		INSERT INTO relief.alerts (headline, type, severity, location, latitude, longitude, status,
			submitted_by_name, submitted_by_email, donation_needed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + alertColumns

	var lat, lng interface{}
	if alert.Coordinates != nil {
		lat = alert.Coordinates.Lat
		lng = alert.Coordinates.Lng
	}

	row := r.db.QueryRowContext(ctx, query,
		alert.Headline,
		alert.Type,
		alert.Severity,
		alert.Location,
		lat,
		lng,
		alert.Status,
		alert.SubmittedBy.Name,
		alert.SubmittedBy.Email,
		alert.DonationNeeded,
	)
	created, err := scanAlert(row)
	if err != nil {
		return models.Alert{}, apperr.Storage(err, "insert alert")
	}
	return created, nil
}

func (r *alertRepository) Get(ctx context.Context, id string) (models.Alert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM relief.alerts WHERE id = $1`, strings.TrimSpace(id))
	alert, err := scanAlert(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Alert{}, apperr.NotFound("alert " + id)
		}
		return models.Alert{}, apperr.Storage(err, "get alert")
	}
	return alert, nil
}

func (r *alertRepository) List(ctx context.Context, filter ListAlertsFilter) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM relief.alerts`
	var conds []string
	var args []interface{}
	if email := strings.TrimSpace(filter.SubmitterEmail); email != "" {
		args = append(args, email)
		conds = append(conds, fmt.Sprintf("submitted_by_email = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(err, "list alerts")
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, apperr.Storage(err, "scan alert")
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list alerts")
	}
	return alerts, nil
}

func (r *alertRepository) Update(ctx context.Context, id string, patch models.AlertPatch) (models.Alert, error) {
	query := `
		UPDATE relief.alerts
		SET headline = COALESCE($2, headline),
		    type = COALESCE($3, type),
		    severity = COALESCE($4, severity),
		    location = COALESCE($5, location),
		    status = COALESCE($6, status),
		    donation_needed = COALESCE($7, donation_needed)
		WHERE id = $1
		RETURNING ` + alertColumns

	row := r.db.QueryRowContext(ctx, query,
		strings.TrimSpace(id),
		patch.Headline,
		patch.Type,
		(*string)(patch.Severity),
		patch.Location,
		(*string)(patch.Status),
		patch.DonationNeeded,
	)
	alert, err := scanAlert(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Alert{}, apperr.NotFound("alert " + id)
		}
		return models.Alert{}, apperr.Storage(err, "update alert")
	}
	return alert, nil
}

func (r *alertRepository) Acknowledge(ctx context.Context, id string) (models.Alert, error) {
	// Status-guarded update: only Pending and Active may move to
	// Acknowledged, and the guard and the write are one statement.
	query := `
		UPDATE relief.alerts
		SET status = $2
		WHERE id = $1 AND status IN ($3, $4)
		RETURNING ` + alertColumns

	row := r.db.QueryRowContext(ctx, query,
		strings.TrimSpace(id),
		models.AlertStatusAcknowledged,
		models.AlertStatusPending,
		models.AlertStatusActive,
	)
	alert, err := scanAlert(row)
	if err == nil {
		return alert, nil
	}
	if err != sql.ErrNoRows {
		return models.Alert{}, apperr.Storage(err, "acknowledge alert")
	}

	// Zero rows: distinguish a missing alert from a forbidden transition.
	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return models.Alert{}, getErr
	}
	return models.Alert{}, errors.Wrapf(apperr.ErrInvalidTransition, "cannot acknowledge alert in status %s", current.Status)
}

func (r *alertRepository) ApplyDonation(ctx context.Context, id string, amount int64, donor models.DonorEntry) (models.Alert, error) {
	entry, err := json.Marshal([]models.DonorEntry{donor})
	if err != nil {
		return models.Alert{}, apperr.Storage(err, "encode donor entry")
	}

	// Single statement: the increment and the append cannot be torn
	// apart by a concurrent settlement.
	query := `
		UPDATE relief.alerts
		SET donation_received = donation_received + $2,
		    donors = donors || $3::jsonb
		WHERE id = $1
		RETURNING ` + alertColumns

	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id), amount, entry)
	alert, err := scanAlert(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Alert{}, apperr.NotFound("alert " + id)
		}
		return models.Alert{}, apperr.Storage(err, "apply donation")
	}
	return alert, nil
}

func (r *alertRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM relief.alerts WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return 0, apperr.Storage(err, "delete alert")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperr.Storage(err, "delete alert")
	}
	return count, nil
}

func scanAlert(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Alert, error) {
	var (
		alert    models.Alert
		lat, lng sql.NullFloat64
		donors   []byte
	)

	if err := scanner.Scan(
		&alert.ID,
		&alert.Headline,
		&alert.Type,
		&alert.Severity,
		&alert.Location,
		&lat,
		&lng,
		&alert.Status,
		&alert.SubmittedBy.Name,
		&alert.SubmittedBy.Email,
		&alert.DonationNeeded,
		&alert.DonationReceived,
		&donors,
		&alert.CreatedAt,
	); err != nil {
		return models.Alert{}, err
	}

	if lat.Valid && lng.Valid {
		alert.Coordinates = &models.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	if len(donors) > 0 {
		alert.Donors = donors
	}
	return alert, nil
}
