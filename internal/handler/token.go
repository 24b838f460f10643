package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/service"
)

type TokenService interface {
	Issue(ctx context.Context, actor model.Actor, in service.IssueInput) (model.Token, error)
	Verify(ctx context.Context, actor model.Actor, in service.VerifyInput) (service.VerifyOutcome, error)
	History(ctx context.Context, actor model.Actor) ([]model.Token, error)
	Dashboard(ctx context.Context, actor model.Actor) (service.CompanyDashboard, error)
}

// TokenHandler serves token purchase for companies and verification for
// officers.
type TokenHandler struct {
	svc TokenService
}

func NewTokenHandler(svc TokenService) *TokenHandler { return &TokenHandler{svc: svc} }

// Issue POST /v1/company/tokens
func (h *TokenHandler) Issue(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req service.IssueInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	tok, err := h.svc.Issue(ctx, actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tok)
}

// History GET /v1/company/tokens
func (h *TokenHandler) History(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	tokens, err := h.svc.History(ctx, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tokens})
}

// Dashboard GET /v1/company/dashboard
func (h *TokenHandler) Dashboard(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	d, err := h.svc.Dashboard(ctx, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Verify POST /v1/checkpoint/verify
//
// Every verification outcome, including invalid and mismatch, is a 200;
// the result field tells the officer what to do with the vehicle.
func (h *TokenHandler) Verify(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req service.VerifyInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	out, err := h.svc.Verify(ctx, actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
