package utils

import (
	"strings"

	"github.com/google/uuid"
)

// SerialLength is the number of characters in a token serial.
const SerialLength = 8

// NewSerial returns the first eight characters of a random UUID, upper-cased
// (e.g. "A8F5B3D9"). Serials are not guaranteed unique; the tokens table
// enforces uniqueness and callers draw again on a collision.
func NewSerial() string {
	return strings.ToUpper(uuid.NewString()[:SerialLength])
}
