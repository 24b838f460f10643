package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

type ShiftInput struct {
	Checkpoint string `json:"checkpoint" validate:"max=100"`
}

// ShiftService opens and closes officer duty periods. An officer has at
// most one open shift.
type ShiftService struct {
	shifts ShiftStore
	users  UserStore
	log    zerolog.Logger
	now    func() time.Time
}

func NewShiftService(shifts ShiftStore, users UserStore, log zerolog.Logger) *ShiftService {
	return &ShiftService{shifts: shifts, users: users, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Start opens a shift at checkpoint. A blank checkpoint falls back to the
// officer's assigned checkpoint from their profile.
func (s *ShiftService) Start(ctx context.Context, actor model.Actor, checkpoint string) (model.OfficerShift, error) {
	if !actor.Is(model.RoleOfficer) {
		return model.OfficerShift{}, ErrForbidden
	}
	if _, err := s.shifts.Open(ctx, actor.UserID); err == nil {
		return model.OfficerShift{}, ErrShiftOpen
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.OfficerShift{}, err
	}

	checkpoint = strings.TrimSpace(checkpoint)
	if checkpoint == "" {
		u, err := s.users.GetByID(ctx, actor.UserID)
		if err != nil {
			return model.OfficerShift{}, err
		}
		if u.Officer != nil && u.Officer.Checkpoint != nil {
			checkpoint = *u.Officer.Checkpoint
		}
	}
	if checkpoint == "" {
		return model.OfficerShift{}, invalid("checkpoint is required")
	}

	shift, err := s.shifts.Start(ctx, actor.UserID, checkpoint, s.now())
	if err != nil {
		return model.OfficerShift{}, err
	}
	s.log.Info().Uint64("officer_id", actor.UserID).Str("checkpoint", checkpoint).Msg("shift started")
	return shift, nil
}

// End closes the open shift, or returns ErrNotFound when there is none.
func (s *ShiftService) End(ctx context.Context, actor model.Actor) (model.OfficerShift, error) {
	if !actor.Is(model.RoleOfficer) {
		return model.OfficerShift{}, ErrForbidden
	}
	shift, err := s.shifts.Open(ctx, actor.UserID)
	if err != nil {
		return model.OfficerShift{}, err
	}
	now := s.now()
	if err := s.shifts.End(ctx, shift.ID, now); err != nil {
		return model.OfficerShift{}, err
	}
	shift.EndTime = &now
	s.log.Info().Uint64("officer_id", actor.UserID).Dur("duration", now.Sub(shift.StartTime)).Msg("shift ended")
	return shift, nil
}

// Current returns the open shift or ErrNotFound.
func (s *ShiftService) Current(ctx context.Context, actor model.Actor) (model.OfficerShift, error) {
	if !actor.Is(model.RoleOfficer) {
		return model.OfficerShift{}, ErrForbidden
	}
	return s.shifts.Open(ctx, actor.UserID)
}
