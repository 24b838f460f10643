package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/service"
)

type CargoService interface {
	List(ctx context.Context) ([]model.CargoType, error)
	Create(ctx context.Context, actor model.Actor, in service.CargoInput) (model.CargoType, error)
	Update(ctx context.Context, actor model.Actor, id uint64, in service.CargoInput) (model.CargoType, error)
	UpdatePrice(ctx context.Context, actor model.Actor, id uint64, price float64) (model.CargoType, error)
	Delete(ctx context.Context, actor model.Actor, id uint64) error
}

// CargoHandler serves the cargo catalog.
type CargoHandler struct {
	svc CargoService
}

func NewCargoHandler(svc CargoService) *CargoHandler { return &CargoHandler{svc: svc} }

// List GET /v1/cargo-types
func (h *CargoHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()
	items, err := h.svc.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create POST /v1/admin/cargo-types
func (h *CargoHandler) Create(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req service.CargoInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	ct, err := h.svc.Create(ctx, actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ct)
}

// Update PUT /v1/admin/cargo-types/:id
func (h *CargoHandler) Update(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req service.CargoInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	ct, err := h.svc.Update(ctx, actor, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ct)
}

// UpdatePrice PATCH /v1/admin/cargo-types/:id/price
func (h *CargoHandler) UpdatePrice(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req service.PriceInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	ct, err := h.svc.UpdatePrice(ctx, actor, id, req.Price)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ct)
}

// Delete DELETE /v1/admin/cargo-types/:id
func (h *CargoHandler) Delete(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
