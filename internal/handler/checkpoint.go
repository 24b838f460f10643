package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/service"
)

type CheckpointService interface {
	RecordEntry(ctx context.Context, actor model.Actor, in service.EntryInput) (model.VehicleLog, error)
	Companies(ctx context.Context) ([]model.CompanyRef, error)
}

type ShiftService interface {
	Start(ctx context.Context, actor model.Actor, checkpoint string) (model.OfficerShift, error)
	End(ctx context.Context, actor model.Actor) (model.OfficerShift, error)
	Current(ctx context.Context, actor model.Actor) (model.OfficerShift, error)
}

// CheckpointHandler serves the officer's desk: manual entries, the company
// picker and shifts.
type CheckpointHandler struct {
	entries CheckpointService
	shifts  ShiftService
}

func NewCheckpointHandler(entries CheckpointService, shifts ShiftService) *CheckpointHandler {
	return &CheckpointHandler{entries: entries, shifts: shifts}
}

// RecordEntry POST /v1/checkpoint/entries
func (h *CheckpointHandler) RecordEntry(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req service.EntryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	entry, err := h.entries.RecordEntry(ctx, actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// Companies GET /v1/checkpoint/companies
func (h *CheckpointHandler) Companies(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	list, err := h.entries.Companies(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// StartShift POST /v1/checkpoint/shifts/start
func (h *CheckpointHandler) StartShift(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req service.ShiftInput
	// The body is optional; the profile checkpoint is used when absent.
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	shift, err := h.shifts.Start(ctx, actor, req.Checkpoint)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, shift)
}

// EndShift POST /v1/checkpoint/shifts/end
func (h *CheckpointHandler) EndShift(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	shift, err := h.shifts.End(ctx, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shift)
}

// CurrentShift GET /v1/checkpoint/shifts/current
func (h *CheckpointHandler) CurrentShift(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	shift, err := h.shifts.Current(ctx, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shift)
}
