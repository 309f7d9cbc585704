package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
)

type DonationRepository interface {
	Create(ctx context.Context, donation models.Donation) (models.Donation, error)
	Get(ctx context.Context, id string) (models.Donation, error)
	ListByAlert(ctx context.Context, alertID string) ([]models.Donation, error)
	// MarkCompleted moves a pending donation to completed, stamping the
	// payment reference. It reports whether this call performed the
	// transition; false with a nil error means the donation was already
	// completed (a retried confirmation).
	MarkCompleted(ctx context.Context, id, paymentReference string) (bool, error)
}

type donationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) DonationRepository {
	return &donationRepository{db: db}
}

const donationColumns = `id, donor_name, donor_email, alert_id, alert_headline, amount,
	pledge_date, status, payment_reference, created_at`

func (r *donationRepository) Create(ctx context.Context, donation models.Donation) (models.Donation, error) {
	query := `
		INSERT INTO relief.donations (donor_name, donor_email, alert_id, alert_headline, amount, pledge_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + donationColumns

	row := r.db.QueryRowContext(ctx, query,
		donation.DonorName,
		donation.DonorEmail,
		donation.AlertID,
		donation.AlertHeadline,
		donation.Amount,
		donation.PledgeDate,
		models.DonationStatusPending,
	)
	created, err := scanDonation(row)
	if err != nil {
		return models.Donation{}, apperr.Storage(err, "insert donation")
	}
	return created, nil
}

func (r *donationRepository) Get(ctx context.Context, id string) (models.Donation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM relief.donations WHERE id = $1`, strings.TrimSpace(id))
	donation, err := scanDonation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Donation{}, apperr.NotFound("donation " + id)
		}
		return models.Donation{}, apperr.Storage(err, "get donation")
	}
	return donation, nil
}

func (r *donationRepository) ListByAlert(ctx context.Context, alertID string) ([]models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM relief.donations WHERE alert_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(alertID))
	if err != nil {
		return nil, apperr.Storage(err, "list donations")
	}
	defer rows.Close()

	var donations []models.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, apperr.Storage(err, "scan donation")
		}
		donations = append(donations, donation)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list donations")
	}
	return donations, nil
}

func (r *donationRepository) MarkCompleted(ctx context.Context, id, paymentReference string) (bool, error) {
	// Status-guarded: a raced or replayed confirmation matches zero
	// rows instead of overwriting the payment reference.
	query := `
		UPDATE relief.donations
		SET status = $2, payment_reference = $3
		WHERE id = $1 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		strings.TrimSpace(id),
		models.DonationStatusCompleted,
		paymentReference,
		models.DonationStatusPending,
	)
	if err != nil {
		return false, apperr.Storage(err, "mark donation completed")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperr.Storage(err, "mark donation completed")
	}
	return affected == 1, nil
}

func scanDonation(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Donation, error) {
	var (
		donation models.Donation
		payRef   sql.NullString
	)

	if err := scanner.Scan(
		&donation.ID,
		&donation.DonorName,
		&donation.DonorEmail,
		&donation.AlertID,
		&donation.AlertHeadline,
		&donation.Amount,
		&donation.PledgeDate,
		&donation.Status,
		&payRef,
		&donation.CreatedAt,
	); err != nil {
		return models.Donation{}, err
	}

	if payRef.Valid {
		val := payRef.String
		donation.PaymentReference = &val
	}
	return donation, nil
}
