package models

import "time"

type MissionStatus string

const (
	MissionStatusPending    MissionStatus = "Pending"
	MissionStatusInProgress MissionStatus = "In-Progress"
	MissionStatusCompleted  MissionStatus = "Completed"
	MissionStatusCancelled  MissionStatus = "Cancelled"
)

// Mission is a rescuer assignment. Location resolution reuses the same
// geocoding client as alerts.
type Mission struct {
	ID              string        `json:"id" db:"id"`
	Title           string        `json:"title" db:"title"`
	AssigneeName    string        `json:"assignee_name" db:"assignee_name"`
	AssigneeEmail   string        `json:"assignee_email" db:"assignee_email"`
	Location        string        `json:"location" db:"location"`
	Coordinates     *Coordinate   `json:"coordinates,omitempty"`
	Status          MissionStatus `json:"status" db:"status"`
	ResourceRequest string        `json:"resource_request,omitempty" db:"resource_request"`
	Report          string        `json:"report,omitempty" db:"report"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
}

type MissionPatch struct {
	Title           *string        `json:"title"`
	Status          *MissionStatus `json:"status"`
	ResourceRequest *string        `json:"resource_request"`
	Report          *string        `json:"report"`
}
