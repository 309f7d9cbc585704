package models

import (
	"encoding/json"
	"time"
)

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "Low"
	AlertSeverityMedium   AlertSeverity = "Medium"
	AlertSeverityHigh     AlertSeverity = "High"
	AlertSeverityCritical AlertSeverity = "Critical"
)

type AlertStatus string

const (
	AlertStatusPending      AlertStatus = "Pending"
	AlertStatusActive       AlertStatus = "Active"
	AlertStatusAcknowledged AlertStatus = "Acknowledged"
	AlertStatusCompleted    AlertStatus = "Completed"
	AlertStatusCancelled    AlertStatus = "Cancelled"
)

func ValidAlertStatus(s AlertStatus) bool {
	switch s {
	case AlertStatusPending, AlertStatusActive, AlertStatusAcknowledged, AlertStatusCompleted, AlertStatusCancelled:
		return true
	}
	return false
}

// Coordinate is a resolved latitude/longitude pair. An alert either has
// both values or none; geocoding failure leaves the pair absent.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Reporter identifies who submitted an alert.
type Reporter struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DonorEntry is one settled contribution on an alert's donor list.
// Amount is in integer cents.
type DonorEntry struct {
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Amount int64     `json:"amount"`
	Date   time.Time `json:"date"`
}

// Alert is a persisted disaster report. DonationReceived always equals
// the sum of the donor list amounts; both are mutated together by a
// single store-level operation.
type Alert struct {
	ID               string          `json:"id" db:"id"`
	Headline         string          `json:"headline" db:"headline"`
	Type             string          `json:"type" db:"type"`
	Severity         AlertSeverity   `json:"severity" db:"severity"`
	Location         string          `json:"location" db:"location"`
	Coordinates      *Coordinate     `json:"coordinates,omitempty"`
	Status           AlertStatus     `json:"status" db:"status"`
	SubmittedBy      Reporter        `json:"submitted_by"`
	DonationNeeded   bool            `json:"donation_needed" db:"donation_needed"`
	DonationReceived int64           `json:"donation_received" db:"donation_received"`
	Donors           json.RawMessage `json:"donors,omitempty" db:"donors"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// DonorList decodes the stored donor document.
func (a Alert) DonorList() ([]DonorEntry, error) {
	if len(a.Donors) == 0 {
		return nil, nil
	}
	var entries []DonorEntry
	if err := json.Unmarshal(a.Donors, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AlertPatch holds the fields a plain update may change. Donation
// aggregates are excluded on purpose; those move only through
// ApplyDonation.
type AlertPatch struct {
	Headline       *string        `json:"headline"`
	Type           *string        `json:"type"`
	Severity       *AlertSeverity `json:"severity"`
	Location       *string        `json:"location"`
	Status         *AlertStatus   `json:"status"`
	DonationNeeded *bool          `json:"donation_needed"`
}
