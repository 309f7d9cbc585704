package models

import "time"

type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
)

// Donation is a pledge/settlement record with a lifecycle independent
// from its target alert. PaymentReference is set exactly when the
// donation is completed; the status never moves back to pending.
type Donation struct {
	ID               string         `json:"id" db:"id"`
	DonorName        string         `json:"donor_name" db:"donor_name"`
	DonorEmail       string         `json:"donor_email" db:"donor_email"`
	AlertID          string         `json:"alert_id" db:"alert_id"`
	AlertHeadline    string         `json:"alert_headline" db:"alert_headline"`
	Amount           int64          `json:"amount" db:"amount"`
	PledgeDate       time.Time      `json:"pledge_date" db:"pledge_date"`
	Status           DonationStatus `json:"status" db:"status"`
	PaymentReference *string        `json:"payment_reference,omitempty" db:"payment_reference"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

// PaymentIntent is the processor-side handle created at pledge time.
// The client secret lets the donor confirm the payment out-of-band.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}
