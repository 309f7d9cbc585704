package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
)

// ErrProfileExists is returned when a rescuer profile already exists
// for the given email.
var ErrProfileExists = apperr.Validation("profile already exists")

// ContentRepository covers the plain pass-through collections: rescuer
// profiles, resources, and safety contents.
type ContentRepository interface {
	ListProfiles(ctx context.Context) ([]models.RescuerProfile, error)
	GetProfileByEmail(ctx context.Context, email string) (models.RescuerProfile, error)
	CreateProfile(ctx context.Context, profile models.RescuerProfile) (models.RescuerProfile, error)

	ListResources(ctx context.Context) ([]models.Resource, error)
	UpdateResource(ctx context.Context, id, status, location string) (models.Resource, error)

	ListSafetyContents(ctx context.Context) ([]models.SafetyContent, error)
}

type contentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

const profileColumns = `id, name, email, specialization, details, created_at`

func (r *contentRepository) ListProfiles(ctx context.Context) ([]models.RescuerProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM relief.rescuer_profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Storage(err, "list profiles")
	}
	defer rows.Close()

	var profiles []models.RescuerProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, apperr.Storage(err, "scan profile")
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list profiles")
	}
	return profiles, nil
}

func (r *contentRepository) GetProfileByEmail(ctx context.Context, email string) (models.RescuerProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM relief.rescuer_profiles WHERE email = $1`, strings.TrimSpace(email))
	profile, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.RescuerProfile{}, apperr.NotFound("profile " + email)
		}
		return models.RescuerProfile{}, apperr.Storage(err, "get profile")
	}
	return profile, nil
}

func (r *contentRepository) CreateProfile(ctx context.Context, profile models.RescuerProfile) (models.RescuerProfile, error) {
	query := `
		INSERT INTO relief.rescuer_profiles (name, email, specialization, details)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + profileColumns

	var details interface{}
	if len(profile.Details) > 0 {
		details = []byte(profile.Details)
	}
	row := r.db.QueryRowContext(ctx, query, profile.Name, strings.TrimSpace(profile.Email), profile.Specialization, details)
	created, err := scanProfile(row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return models.RescuerProfile{}, ErrProfileExists
		}
		return models.RescuerProfile{}, apperr.Storage(err, "insert profile")
	}
	return created, nil
}

func (r *contentRepository) ListResources(ctx context.Context) ([]models.Resource, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type, status, location, created_at FROM relief.resources ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Storage(err, "list resources")
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var res models.Resource
		if err := rows.Scan(&res.ID, &res.Name, &res.Type, &res.Status, &res.Location, &res.CreatedAt); err != nil {
			return nil, apperr.Storage(err, "scan resource")
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list resources")
	}
	return resources, nil
}

func (r *contentRepository) UpdateResource(ctx context.Context, id, status, location string) (models.Resource, error) {
	query := `
		UPDATE relief.resources
		SET status = $2, location = $3
		WHERE id = $1
		RETURNING id, name, type, status, location, created_at
	`
	var res models.Resource
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id), status, location).
		Scan(&res.ID, &res.Name, &res.Type, &res.Status, &res.Location, &res.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Resource{}, apperr.NotFound("resource " + id)
		}
		return models.Resource{}, apperr.Storage(err, "update resource")
	}
	return res, nil
}

func (r *contentRepository) ListSafetyContents(ctx context.Context) ([]models.SafetyContent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, category, content, created_at FROM relief.safety_contents ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Storage(err, "list safety contents")
	}
	defer rows.Close()

	var contents []models.SafetyContent
	for rows.Next() {
		var sc models.SafetyContent
		if err := rows.Scan(&sc.ID, &sc.Title, &sc.Category, &sc.Content, &sc.CreatedAt); err != nil {
			return nil, apperr.Storage(err, "scan safety content")
		}
		contents = append(contents, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list safety contents")
	}
	return contents, nil
}

func scanProfile(scanner interface {
	Scan(dest ...interface{}) error
}) (models.RescuerProfile, error) {
	var (
		profile models.RescuerProfile
		details []byte
	)
	if err := scanner.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Email,
		&profile.Specialization,
		&details,
		&profile.CreatedAt,
	); err != nil {
		return models.RescuerProfile{}, err
	}
	if len(details) > 0 {
		profile.Details = details
	}
	return profile, nil
}
