package model

import "time"

// VehicleLog is an append-only checkpoint crossing record. It is the ledger
// every revenue report aggregates over.
type VehicleLog struct {
	ID          uint64    `json:"id"`
	NumberPlate string    `json:"number_plate"`
	CompanyID   *uint64   `json:"company_id,omitempty"`
	CompanyName string    `json:"company_name"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Location    string    `json:"location,omitempty"`
	Checkpoint  string    `json:"checkpoint"`
	AmountPaid  float64   `json:"amount_paid"`
	OfficerID   *uint64   `json:"officer_id,omitempty"`
	OfficerName string    `json:"officer_name,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	TokenSerial *string   `json:"token_serial,omitempty"`
}

// UnknownCompany labels logs whose company reference is missing or has no profile.
const UnknownCompany = "Unknown"
