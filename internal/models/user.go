package models

import "time"

type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleRescuer UserRole = "rescuer"
	RoleAdmin   UserRole = "admin"
)

// User is a registered community member; users are also the recipient
// pool for active-alert email notifications.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
