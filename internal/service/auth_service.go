package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
	"github.com/iliyamo/checkpoint-revenue/internal/utils"
)

const minPasswordLen = 6

// AuthSettings are the session parameters taken from configuration.
type AuthSettings struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type LoginInput struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the self-service sign-up form. Only companies can
// register themselves.
type RegisterInput struct {
	Phone           string `json:"phone" validate:"required,max=20"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	CompanyName     string `json:"company_name" validate:"required,max=100"`
	FullName        string `json:"full_name" validate:"required,max=100"`
	NRC             string `json:"nrc" validate:"max=50"`
}

// CreateUserInput is the admin provisioning form for admin and officer
// accounts. FullName is required for officers.
type CreateUserInput struct {
	Role       string `json:"role" validate:"required,oneof=admin officer"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	FullName   string `json:"full_name" validate:"max=100"`
	NRC        string `json:"nrc" validate:"max=50"`
	Checkpoint string `json:"checkpoint" validate:"max=100"`
}

type PasswordInput struct {
	Current string `json:"current_password" validate:"required"`
	New     string `json:"new_password" validate:"required,min=6"`
	Confirm string `json:"confirm_password" validate:"required"`
}

// Session is returned by login and refresh.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Role         model.Role `json:"role"`
	Landing      string     `json:"landing"`
}

// AuthService covers login, logout, token refresh, registration, admin
// user provisioning, password change and profile lookup.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	deny     Denylist
	cfg      AuthSettings
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, deny Denylist, cfg AuthSettings, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		deny:     deny,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates by phone and password. Unknown phones and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (Session, error) {
	u, err := s.users.GetByPhone(ctx, strings.TrimSpace(in.Phone))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return Session{}, ErrInvalidCredentials
	}
	if !u.Role.Valid() {
		return Session{}, fmt.Errorf("user %d has unknown role %q", u.ID, u.Role)
	}

	sess, err := s.issue(ctx, u.ID, u.Role)
	if err != nil {
		return Session{}, err
	}
	if err := s.users.MarkLoggedIn(ctx, u.ID, s.now()); err != nil {
		return Session{}, err
	}
	s.log.Info().Uint64("user_id", u.ID).Str("role", string(u.Role)).Msg("user logged in")
	return sess, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// access/refresh pair is issued. Revocation is conditional, so concurrent
// refreshes with the same token yield a single new session.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrInvalidCredentials
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.sessions.Validate(ctx, hash, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.RevokeByHash(ctx, hash)
	if err != nil {
		return Session{}, err
	}
	if !revoked {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(ctx, u.ID, u.Role)
}

func (s *AuthService) issue(ctx context.Context, userID uint64, role model.Role) (Session, error) {
	at, err := utils.NewAccessToken(s.cfg.Secret, userID, role, s.cfg.AccessTTL)
	if err != nil {
		return Session{}, err
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshTTL)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.Store(ctx, userID, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  at.Token,
		RefreshToken: rt.Raw,
		ExpiresAt:    at.Exp,
		Role:         role,
		Landing:      role.LandingPath(),
	}, nil
}

// Logout revokes all refresh tokens of the actor, denylists the presented
// access token until it would have expired and clears the logged-in flag.
func (s *AuthService) Logout(ctx context.Context, actor model.Actor, jti string, exp time.Time) error {
	if err := s.sessions.RevokeAllForUser(ctx, actor.UserID); err != nil {
		return err
	}
	if s.deny != nil {
		if err := s.deny.Revoke(ctx, jti, exp); err != nil {
			// The access token still expires on its own; do not fail logout.
			s.log.Warn().Err(err).Uint64("user_id", actor.UserID).Msg("denylist write failed")
		}
	}
	if err := s.users.MarkLoggedOut(ctx, actor.UserID); err != nil {
		return err
	}
	s.log.Info().Uint64("user_id", actor.UserID).Msg("user logged out")
	return nil
}

// RegisterCompany creates a company account with its profile. Phone,
// email, company name and NRC must all be unused.
func (s *AuthService) RegisterCompany(ctx context.Context, in RegisterInput) (model.User, error) {
	if len(in.Password) < minPasswordLen {
		return model.User{}, invalid("password must be at least %d characters", minPasswordLen)
	}
	if in.Password != in.ConfirmPassword {
		return model.User{}, invalid("passwords do not match")
	}
	company := strings.TrimSpace(in.CompanyName)
	fullName := strings.TrimSpace(in.FullName)
	if company == "" || fullName == "" {
		return model.User{}, invalid("company_name and full_name are required")
	}
	u := model.User{
		Role:    model.RoleCompany,
		Email:   normalizeEmail(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Company: &model.CompanyProfile{CompanyName: company, FullName: fullName, NRC: optional(in.NRC)},
	}
	return s.create(ctx, u, in.Password, in.NRC)
}

// CreateUser lets an admin provision admin and officer accounts.
func (s *AuthService) CreateUser(ctx context.Context, actor model.Actor, in CreateUserInput) (model.User, error) {
	if !actor.Is(model.RoleAdmin) {
		return model.User{}, ErrForbidden
	}
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return model.User{}, invalid("role must be admin or officer")
	}
	if len(in.Password) < minPasswordLen {
		return model.User{}, invalid("password must be at least %d characters", minPasswordLen)
	}
	u := model.User{
		Role:  role,
		Email: normalizeEmail(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	switch role {
	case model.RoleOfficer:
		name := strings.TrimSpace(in.FullName)
		if name == "" {
			return model.User{}, invalid("full_name is required for officers")
		}
		u.Officer = &model.OfficerProfile{FullName: name, NRC: optional(in.NRC), Checkpoint: optional(in.Checkpoint)}
	case model.RoleAdmin:
	case model.RoleCompany:
		return model.User{}, invalid("companies register themselves")
	}
	created, err := s.create(ctx, u, in.Password, in.NRC)
	if err != nil {
		return model.User{}, err
	}
	s.log.Info().Uint64("admin_id", actor.UserID).Uint64("user_id", created.ID).Str("role", string(role)).Msg("user provisioned")
	return created, nil
}

func (s *AuthService) create(ctx context.Context, u model.User, password, nrc string) (model.User, error) {
	probe := repository.UniqueProbe{Phone: u.Phone, Email: u.Email, NRC: nrc}
	if u.Company != nil {
		probe.CompanyName = u.Company.CompanyName
	}
	field, err := s.users.FirstTaken(ctx, probe)
	if err != nil {
		return model.User{}, err
	}
	if field != "" {
		return model.User{}, fmt.Errorf("%s %w", strings.ReplaceAll(field, "_", " "), repository.ErrDuplicate)
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = hash
	id, err := s.users.CreateWithProfile(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	u.ID = id
	if u.Company != nil {
		u.Company.UserID = id
	}
	if u.Officer != nil {
		u.Officer.UserID = id
	}
	return u, nil
}

// ChangePassword replaces the actor's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor model.Actor, in PasswordInput) error {
	if len(in.New) < minPasswordLen {
		return invalid("new password must be at least %d characters", minPasswordLen)
	}
	if in.New != in.Confirm {
		return invalid("new passwords do not match")
	}
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Current) {
		return invalid("current password is incorrect")
	}
	hash, err := utils.HashPassword(in.New, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// Profile returns the actor's user record with its profile.
func (s *AuthService) Profile(ctx context.Context, actor model.Actor) (model.User, error) {
	return s.users.GetByID(ctx, actor.UserID)
}

// EnsureAdmin creates the bootstrap admin account when no user owns the
// given phone yet. Empty phone or password disables bootstrapping.
func (s *AuthService) EnsureAdmin(ctx context.Context, phone, email, password string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil
	}
	_, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if email == "" {
		email = "admin@" + phone + ".local"
	}
	u, err := s.create(ctx, model.User{Role: model.RoleAdmin, Phone: phone, Email: normalizeEmail(email)}, password, "")
	if err != nil {
		return err
	}
	s.log.Info().Uint64("user_id", u.ID).Msg("bootstrap admin created")
	return nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
