package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
)

type MissionRepository interface {
	Create(ctx context.Context, mission models.Mission) (models.Mission, error)
	Get(ctx context.Context, id string) (models.Mission, error)
	List(ctx context.Context) ([]models.Mission, error)
	Update(ctx context.Context, id string, patch models.MissionPatch) (models.Mission, error)
}

type missionRepository struct {
	db *sql.DB
}

func NewMissionRepository(db *sql.DB) MissionRepository {
	return &missionRepository{db: db}
}

const missionColumns = `id, title, assignee_name, assignee_email, location, latitude, longitude,
	status, resource_request, report, created_at`

func (r *missionRepository) Create(ctx context.Context, mission models.Mission) (models.Mission, error) {
	query := `
		INSERT INTO relief.missions (title, assignee_name, assignee_email, location, latitude, longitude, status, resource_request)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + missionColumns

	var lat, lng interface{}
	if mission.Coordinates != nil {
		lat = mission.Coordinates.Lat
		lng = mission.Coordinates.Lng
	}
	status := mission.Status
	if status == "" {
		status = models.MissionStatusPending
	}

	row := r.db.QueryRowContext(ctx, query,
		mission.Title,
		mission.AssigneeName,
		mission.AssigneeEmail,
		mission.Location,
		lat,
		lng,
		status,
		mission.ResourceRequest,
	)
	created, err := scanMission(row)
	if err != nil {
		return models.Mission{}, apperr.Storage(err, "insert mission")
	}
	return created, nil
}

func (r *missionRepository) Get(ctx context.Context, id string) (models.Mission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM relief.missions WHERE id = $1`, strings.TrimSpace(id))
	mission, err := scanMission(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Mission{}, apperr.NotFound("mission " + id)
		}
		return models.Mission{}, apperr.Storage(err, "get mission")
	}
	return mission, nil
}

func (r *missionRepository) List(ctx context.Context) ([]models.Mission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+missionColumns+` FROM relief.missions ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Storage(err, "list missions")
	}
	defer rows.Close()

	var missions []models.Mission
	for rows.Next() {
		mission, err := scanMission(rows)
		if err != nil {
			return nil, apperr.Storage(err, "scan mission")
		}
		missions = append(missions, mission)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list missions")
	}
	return missions, nil
}

func (r *missionRepository) Update(ctx context.Context, id string, patch models.MissionPatch) (models.Mission, error) {
	query := `
		UPDATE relief.missions
		SET title = COALESCE($2, title),
		    status = COALESCE($3, status),
		    resource_request = COALESCE($4, resource_request),
		    report = COALESCE($5, report)
		WHERE id = $1
		RETURNING ` + missionColumns

	row := r.db.QueryRowContext(ctx, query,
		strings.TrimSpace(id),
		patch.Title,
		(*string)(patch.Status),
		patch.ResourceRequest,
		patch.Report,
	)
	mission, err := scanMission(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Mission{}, apperr.NotFound("mission " + id)
		}
		return models.Mission{}, apperr.Storage(err, "update mission")
	}
	return mission, nil
}

func scanMission(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Mission, error) {
	var (
		mission  models.Mission
		lat, lng sql.NullFloat64
	)

	if err := scanner.Scan(
		&mission.ID,
		&mission.Title,
		&mission.AssigneeName,
		&mission.AssigneeEmail,
		&mission.Location,
		&lat,
		&lng,
		&mission.Status,
		&mission.ResourceRequest,
		&mission.Report,
		&mission.CreatedAt,
	); err != nil {
		return models.Mission{}, err
	}

	if lat.Valid && lng.Valid {
		mission.Coordinates = &models.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	return mission, nil
}
