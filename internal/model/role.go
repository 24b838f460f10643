package model

import (
	"fmt"
	"strings"
)

// Role is the sole authorization axis of the service. It is a closed set:
// the zero value is not a valid role and ParseRole rejects anything other
// than the three constants below.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
	RoleOfficer Role = "officer"
)

// ParseRole converts a raw string (claim, form value, DB column) into a Role.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCompany:
		return RoleCompany, nil
	case RoleOfficer:
		return RoleOfficer, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCompany, RoleOfficer:
		return true
	}
	return false
}

// LandingPath is the API entry point a freshly logged-in user of this role
// should visit first.
func (r Role) LandingPath() string {
	switch r {
	case RoleAdmin:
		return "/v1/admin/dashboard"
	case RoleOfficer:
		return "/v1/checkpoint/entries"
	case RoleCompany:
		return "/v1/company/dashboard"
	}
	return ""
}

func (r Role) String() string { return string(r) }

// Actor is the authenticated caller of a request. It is built by the JWT
// middleware and passed explicitly into every service call.
type Actor struct {
	UserID uint64
	Role   Role
}

// Is reports whether the actor holds the given role.
func (a Actor) Is(r Role) bool { return a.UserID != 0 && a.Role == r }
