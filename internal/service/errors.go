// Package service implements the business operations of the checkpoint
// service. Every operation takes the authenticated model.Actor explicitly;
// repositories are reached through the narrow interfaces in ports.go.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

// ValidationError reports malformed input. Handlers render it as 400 with
// the message verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

var (
	// ErrForbidden is returned when the actor's role may not perform the
	// operation.
	ErrForbidden = errors.New("access denied")

	// ErrInvalidCredentials covers unknown phone numbers, wrong passwords
	// and unusable refresh tokens alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSerialExhausted means every serial drawn for a new token collided
	// with an existing one.
	ErrSerialExhausted = errors.New("could not allocate a unique token serial")

	// ErrShiftOpen is returned when an officer starts a shift while another
	// is still open.
	ErrShiftOpen = fmt.Errorf("shift already open: %w", repository.ErrConflict)
)
