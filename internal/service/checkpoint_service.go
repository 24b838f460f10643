package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/metrics"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

// EntryInput is a manual (cash / ad-hoc) crossing recorded by an officer.
type EntryInput struct {
	Plate      string  `json:"number_plate" validate:"required,max=20"`
	CompanyID  *uint64 `json:"company_id"`
	Phone      string  `json:"phone" validate:"max=20"`
	Email      string  `json:"email" validate:"omitempty,email"`
	Location   string  `json:"location" validate:"max=100"`
	Checkpoint string  `json:"checkpoint" validate:"max=50"`
	AmountPaid float64 `json:"amount_paid" validate:"gte=0"`
}

// CheckpointService records crossings that are not backed by a token.
type CheckpointService struct {
	logs   LogStore
	users  UserStore
	shifts ShiftStore
	log    zerolog.Logger
	now    func() time.Time
}

func NewCheckpointService(logs LogStore, users UserStore, shifts ShiftStore, log zerolog.Logger) *CheckpointService {
	return &CheckpointService{
		logs:   logs,
		users:  users,
		shifts: shifts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecordEntry appends a vehicle log row for the acting officer. The
// checkpoint defaults to the officer's open shift; a referenced company
// must exist.
func (s *CheckpointService) RecordEntry(ctx context.Context, actor model.Actor, in EntryInput) (model.VehicleLog, error) {
	if !actor.Is(model.RoleOfficer) {
		return model.VehicleLog{}, ErrForbidden
	}
	plate := normalizeCode(in.Plate)
	if plate == "" {
		return model.VehicleLog{}, invalid("number_plate is required")
	}
	if in.AmountPaid < 0 {
		return model.VehicleLog{}, invalid("amount_paid must not be negative")
	}

	checkpoint := strings.TrimSpace(in.Checkpoint)
	if checkpoint == "" {
		shift, err := s.shifts.Open(ctx, actor.UserID)
		switch {
		case err == nil:
			checkpoint = shift.Checkpoint
		case !errors.Is(err, repository.ErrNotFound):
			return model.VehicleLog{}, err
		}
	}
	if checkpoint == "" {
		return model.VehicleLog{}, invalid("checkpoint is required when no shift is open")
	}

	entry := model.VehicleLog{
		NumberPlate: plate,
		Phone:       strings.TrimSpace(in.Phone),
		Email:       normalizeEmail(in.Email),
		Location:    strings.TrimSpace(in.Location),
		Checkpoint:  checkpoint,
		AmountPaid:  in.AmountPaid,
		OfficerID:   &actor.UserID,
		Timestamp:   s.now(),
		CompanyName: model.UnknownCompany,
	}
	if in.CompanyID != nil {
		company, err := s.users.GetCompany(ctx, *in.CompanyID)
		if err != nil {
			return model.VehicleLog{}, fmt.Errorf("company %d: %w", *in.CompanyID, err)
		}
		entry.CompanyID = &company.ID
		entry.CompanyName = company.DisplayName()
	}

	if _, err := s.logs.Create(ctx, &entry); err != nil {
		return model.VehicleLog{}, err
	}
	metrics.VehicleLogsTotal.WithLabelValues("entry").Inc()
	s.log.Info().
		Uint64("log_id", entry.ID).
		Uint64("officer_id", actor.UserID).
		Str("plate", plate).
		Str("checkpoint", checkpoint).
		Float64("amount", entry.AmountPaid).
		Msg("vehicle entry recorded")
	return entry, nil
}

// Companies lists the companies an officer can attribute an entry to.
func (s *CheckpointService) Companies(ctx context.Context) ([]model.CompanyRef, error) {
	return s.users.ListCompanies(ctx)
}
