package models

import (
	"encoding/json"
	"time"
)

// RescuerProfile holds the public profile of a rescuer, keyed by email.
type RescuerProfile struct {
	ID             string          `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Email          string          `json:"email" db:"email"`
	Specialization string          `json:"specialization,omitempty" db:"specialization"`
	Details        json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Resource is a deployable relief asset (vehicle, shelter, supply cache).
type Resource struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Status    string    `json:"status" db:"status"`
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SafetyContent is a published safety/preparedness article.
type SafetyContent struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Category  string    `json:"category" db:"category"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
