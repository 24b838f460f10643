package model

import "time"

// User represents an application user record as stored in the `users`
// table. Exactly one role applies; company and officer users carry the
// matching profile.
type User struct {
	ID           uint64     `json:"id"`
	Role         Role       `json:"role"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	IsLoggedIn   bool       `json:"is_logged_in"`

	Company *CompanyProfile `json:"company_profile,omitempty"`
	Officer *OfficerProfile `json:"officer_profile,omitempty"`
}

// DisplayName returns the most specific human-readable name available for
// the user: the company name, the officer's full name or the phone number.
func (u User) DisplayName() string {
	switch {
	case u.Company != nil && u.Company.CompanyName != "":
		return u.Company.CompanyName
	case u.Officer != nil && u.Officer.FullName != "":
		return u.Officer.FullName
	}
	return u.Phone
}

// CompanyProfile holds the attributes of a company account (1:1 with User).
type CompanyProfile struct {
	ID          uint64  `json:"id"`
	UserID      uint64  `json:"user_id"`
	CompanyName string  `json:"company_name"`
	FullName    string  `json:"full_name"`
	NRC         *string `json:"nrc,omitempty"`
}

// OfficerProfile holds the attributes of a checkpoint officer (1:1 with User).
type OfficerProfile struct {
	ID         uint64  `json:"id"`
	UserID     uint64  `json:"user_id"`
	FullName   string  `json:"full_name"`
	NRC        *string `json:"nrc,omitempty"`
	Checkpoint *string `json:"checkpoint,omitempty"`
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// CompanyRef is the compact (id, name) pair used to populate company pickers.
type CompanyRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"company_name"`
}
