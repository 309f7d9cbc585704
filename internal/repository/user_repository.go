package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) (models.User, error)
	Delete(ctx context.Context, id string) (int64, error)
	// ListEmails returns the email addresses of all registered users,
	// the recipient pool for active-alert notifications.
	ListEmails(ctx context.Context) ([]string, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, role, created_at`

func (r *userRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO relief.users (name, email, role)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	row := r.db.QueryRowContext(ctx, query, user.Name, strings.TrimSpace(user.Email), role)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, apperr.Storage(err, "insert user")
	}
	return created, nil
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM relief.users ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperr.Storage(err, "list users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Storage(err, "scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list users")
	}
	return users, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM relief.users WHERE email = $1`, strings.TrimSpace(email))
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("user " + email)
		}
		return models.User{}, apperr.Storage(err, "get user")
	}
	return user, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) (models.User, error) {
	query := `UPDATE relief.users SET role = $2 WHERE id = $1 RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, query, strings.TrimSpace(id), role)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("user " + id)
		}
		return models.User{}, apperr.Storage(err, "update user role")
	}
	return user, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM relief.users WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return 0, apperr.Storage(err, "delete user")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperr.Storage(err, "delete user")
	}
	return count, nil
}

func (r *userRepository) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT email FROM relief.users`)
	if err != nil {
		return nil, apperr.Storage(err, "list user emails")
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, apperr.Storage(err, "scan user email")
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err, "list user emails")
	}
	return emails, nil
}

func scanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (models.User, error) {
	var user models.User
	if err := scanner.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
	); err != nil {
		return models.User{}, err
	}
	return user, nil
}
