package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/checkpoint-revenue/internal/middleware"
	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/service"
)

// AuthService is what AuthHandler needs from the service layer.
type AuthService interface {
	Login(ctx context.Context, in service.LoginInput) (service.Session, error)
	Refresh(ctx context.Context, raw string) (service.Session, error)
	Logout(ctx context.Context, actor model.Actor, jti string, exp time.Time) error
	RegisterCompany(ctx context.Context, in service.RegisterInput) (model.User, error)
	CreateUser(ctx context.Context, actor model.Actor, in service.CreateUserInput) (model.User, error)
	ChangePassword(ctx context.Context, actor model.Actor, in service.PasswordInput) error
	Profile(ctx context.Context, actor model.Actor) (model.User, error)
}

// AuthHandler serves login, registration and account endpoints.
type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register creates a company account. POST /v1/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	u, err := h.svc.RegisterCompany(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

// Login exchanges phone and password for a token pair. POST /v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	sess, err := h.svc.Login(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh rotates the refresh token. POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	sess, err := h.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Logout ends every session of the caller. POST /v1/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	jti, exp := middleware.TokenFrom(c)
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	if err := h.svc.Logout(ctx, actor, jti, exp); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account and profile. GET /v1/me
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	u, err := h.svc.Profile(ctx, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword POST /v1/me/password
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req service.PasswordInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	if err := h.svc.ChangePassword(ctx, actor, req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// CreateUser provisions an admin or officer account. POST /v1/admin/users
func (h *AuthHandler) CreateUser(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	var req service.CreateUserInput
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(c, requestTimeout)
	defer cancel()

	u, err := h.svc.CreateUser(ctx, actor, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}
