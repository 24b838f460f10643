package model

import "time"

// TokenStatus is the lifecycle state of a prepaid token. A token starts
// active and moves at most once, to used or to expired; both are terminal.
type TokenStatus string

const (
	TokenActive  TokenStatus = "active"
	TokenUsed    TokenStatus = "used"
	TokenExpired TokenStatus = "expired"
)

// Terminal reports whether no further transition is possible.
func (s TokenStatus) Terminal() bool { return s == TokenUsed || s == TokenExpired }

// Token is a prepaid, time-bounded, single-use authorization bound to a
// vehicle plate and an issuing company.
type Token struct {
	ID             uint64      `json:"id"`
	Serial         string      `json:"serial"`
	VehiclePlate   string      `json:"vehicle_plate"`
	CargoTypeID    uint64      `json:"cargo_type_id"`
	CargoTypeName  string      `json:"cargo_type,omitempty"`
	Price          float64     `json:"price"` // snapshot of the cargo price at issuance
	Status         TokenStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	ExpirationDate time.Time   `json:"expiration_date"`
	UsedAt         *time.Time  `json:"used_at,omitempty"`
	CompanyID      *uint64     `json:"company_id,omitempty"`
}

// Expired reports whether the validity window has closed at now.
func (t Token) Expired(now time.Time) bool { return !now.Before(t.ExpirationDate) }

// Valid reports whether the token can still be redeemed at now.
func (t Token) Valid(now time.Time) bool { return t.Status == TokenActive && !t.Expired(now) }

// VerifyResult is the outcome of presenting a serial and plate at a checkpoint.
type VerifyResult string

const (
	VerifyInvalid  VerifyResult = "invalid"  // serial unknown
	VerifyMismatch VerifyResult = "mismatch" // plate differs from the bound plate
	VerifyUsed     VerifyResult = "used"     // already redeemed
	VerifyExpired  VerifyResult = "expired"  // validity window closed
	VerifyValid    VerifyResult = "valid"    // redeemed by this call
)
