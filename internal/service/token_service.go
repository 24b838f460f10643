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
	"github.com/iliyamo/checkpoint-revenue/internal/utils"
)

const (
	DefaultValidDays  = 3
	MaxValidDays      = 365
	maxSerialAttempts = 5
	recentTokens      = 5
)

// IssueInput is a company's token purchase request.
type IssueInput struct {
	Plate       string `json:"vehicle_plate" validate:"required"`
	CargoTypeID uint64 `json:"cargo_type_id" validate:"required"`
	ValidDays   int    `json:"valid_days" validate:"omitempty,min=1,max=365"`
}

// VerifyInput is what an officer presents at the checkpoint. Checkpoint is
// optional and falls back to the officer's open shift.
type VerifyInput struct {
	Serial     string `json:"serial" validate:"required"`
	Plate      string `json:"vehicle_plate" validate:"required"`
	Checkpoint string `json:"checkpoint"`
}

// VerifyOutcome carries the verification result and, unless the serial was
// unknown, the token as it stands after the call.
type VerifyOutcome struct {
	Result model.VerifyResult `json:"result"`
	Token  *model.Token       `json:"token,omitempty"`
}

// CompanyDashboard summarises a company's purchases.
type CompanyDashboard struct {
	Recent      []model.Token `json:"recent_tokens"`
	TotalTokens int64         `json:"total_tokens"`
	TotalSpent  float64       `json:"total_spent"`
}

// TokenService owns the token lifecycle: issuance, lazy expiry and
// single-use redemption.
type TokenService struct {
	tokens TokenStore
	cargo  CargoStore
	shifts ShiftStore
	log    zerolog.Logger

	now    func() time.Time
	serial func() string
}

func NewTokenService(tokens TokenStore, cargo CargoStore, shifts ShiftStore, log zerolog.Logger) *TokenService {
	return &TokenService{
		tokens: tokens,
		cargo:  cargo,
		shifts: shifts,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		serial: utils.NewSerial,
	}
}

// normalizeCode trims and upper-cases plates and serials so that
// comparisons ignore case and stray whitespace.
func normalizeCode(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Issue sells a new token to the acting company. The price is copied from
// the cargo type at this instant; later catalog edits do not affect it.
func (s *TokenService) Issue(ctx context.Context, actor model.Actor, in IssueInput) (model.Token, error) {
	if !actor.Is(model.RoleCompany) {
		return model.Token{}, ErrForbidden
	}
	plate := normalizeCode(in.Plate)
	if plate == "" {
		return model.Token{}, invalid("vehicle plate is required")
	}
	days := in.ValidDays
	if days == 0 {
		days = DefaultValidDays
	}
	if days < 1 || days > MaxValidDays {
		return model.Token{}, invalid("valid_days must be between 1 and %d", MaxValidDays)
	}
	cargo, err := s.cargo.GetByID(ctx, in.CargoTypeID)
	if err != nil {
		return model.Token{}, fmt.Errorf("cargo type %d: %w", in.CargoTypeID, err)
	}

	now := s.now()
	company := actor.UserID
	for attempt := 1; attempt <= maxSerialAttempts; attempt++ {
		t := model.Token{
			Serial:         s.serial(),
			VehiclePlate:   plate,
			CargoTypeID:    cargo.ID,
			CargoTypeName:  cargo.Name,
			Price:          cargo.Price,
			Status:         model.TokenActive,
			CreatedAt:      now,
			ExpirationDate: now.AddDate(0, 0, days),
			CompanyID:      &company,
		}
		err := s.tokens.Create(ctx, &t)
		if err == nil {
			metrics.TokensIssuedTotal.Inc()
			s.log.Info().
				Str("serial", t.Serial).
				Uint64("company_id", company).
				Str("plate", plate).
				Float64("price", t.Price).
				Msg("token issued")
			return t, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return model.Token{}, err
		}
		s.log.Warn().Int("attempt", attempt).Str("serial", t.Serial).Msg("token serial collision")
	}
	return model.Token{}, ErrSerialExhausted
}

// Verify runs the verification cascade for a presented serial and plate:
// unknown serial, plate mismatch, already used, already expired, lapsed
// (persisted as expired), and finally redemption. Only the last two
// mutate state and both are conditional on the token still being active,
// so concurrent calls on one serial yield at most one "valid".
func (s *TokenService) Verify(ctx context.Context, actor model.Actor, in VerifyInput) (VerifyOutcome, error) {
	if !actor.Is(model.RoleOfficer) {
		return VerifyOutcome{}, ErrForbidden
	}
	serial := normalizeCode(in.Serial)
	plate := normalizeCode(in.Plate)

	out, err := s.verify(ctx, actor, serial, plate, strings.TrimSpace(in.Checkpoint))
	if err != nil {
		return VerifyOutcome{}, err
	}
	metrics.TokenVerificationsTotal.WithLabelValues(string(out.Result)).Inc()
	s.log.Info().
		Str("serial", serial).
		Uint64("officer_id", actor.UserID).
		Str("result", string(out.Result)).
		Msg("token verified")
	return out, nil
}

func (s *TokenService) verify(ctx context.Context, actor model.Actor, serial, plate, checkpoint string) (VerifyOutcome, error) {
	if serial == "" {
		return VerifyOutcome{Result: model.VerifyInvalid}, nil
	}
	tok, err := s.tokens.GetBySerial(ctx, serial)
	if errors.Is(err, repository.ErrNotFound) {
		return VerifyOutcome{Result: model.VerifyInvalid}, nil
	}
	if err != nil {
		return VerifyOutcome{}, err
	}

	if normalizeCode(tok.VehiclePlate) != plate {
		return VerifyOutcome{Result: model.VerifyMismatch, Token: &tok}, nil
	}
	if tok.Status.Terminal() {
		return VerifyOutcome{Result: terminalResult(tok.Status), Token: &tok}, nil
	}

	now := s.now()
	if !tok.Valid(now) {
		return s.expire(ctx, tok)
	}

	entry := &model.VehicleLog{
		NumberPlate: tok.VehiclePlate,
		CompanyID:   tok.CompanyID,
		Checkpoint:  s.checkpointFor(ctx, actor, checkpoint),
		AmountPaid:  tok.Price,
		OfficerID:   &actor.UserID,
		Timestamp:   now,
		TokenSerial: &tok.Serial,
	}
	ok, err := s.tokens.Redeem(ctx, tok.Serial, now, entry)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if !ok {
		// Lost the race to another redemption.
		return s.reread(ctx, tok)
	}
	metrics.VehicleLogsTotal.WithLabelValues("token").Inc()
	tok.Status = model.TokenUsed
	tok.UsedAt = &now
	return VerifyOutcome{Result: model.VerifyValid, Token: &tok}, nil
}

func (s *TokenService) expire(ctx context.Context, tok model.Token) (VerifyOutcome, error) {
	changed, err := s.tokens.ExpireIfActive(ctx, tok.Serial)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if !changed {
		// Someone else moved it out of active first; report where it landed.
		return s.reread(ctx, tok)
	}
	tok.Status = model.TokenExpired
	return VerifyOutcome{Result: model.VerifyExpired, Token: &tok}, nil
}

// reread reloads a token after a lost compare-and-set and reports the
// state the store now holds. A token still active but past its window is
// reported expired; one still redeemable means the update lost to nothing
// and is returned as a conflict.
func (s *TokenService) reread(ctx context.Context, tok model.Token) (VerifyOutcome, error) {
	cur, err := s.tokens.GetBySerial(ctx, tok.Serial)
	if err != nil {
		return VerifyOutcome{}, err
	}
	switch {
	case cur.Status.Terminal():
		return VerifyOutcome{Result: terminalResult(cur.Status), Token: &cur}, nil
	case cur.Expired(s.now()):
		return VerifyOutcome{Result: model.VerifyExpired, Token: &cur}, nil
	}
	return VerifyOutcome{}, fmt.Errorf("token %s still active after lost update: %w", cur.Serial, repository.ErrConflict)
}

func terminalResult(st model.TokenStatus) model.VerifyResult {
	if st == model.TokenUsed {
		return model.VerifyUsed
	}
	return model.VerifyExpired
}

// checkpointFor picks the requested checkpoint or, when blank, the one of
// the officer's open shift. A missing shift yields "".
func (s *TokenService) checkpointFor(ctx context.Context, actor model.Actor, requested string) string {
	if requested != "" || s.shifts == nil {
		return requested
	}
	shift, err := s.shifts.Open(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Uint64("officer_id", actor.UserID).Msg("open shift lookup failed")
		}
		return ""
	}
	return shift.Checkpoint
}

// History lists every token the acting company bought, newest first.
func (s *TokenService) History(ctx context.Context, actor model.Actor) ([]model.Token, error) {
	if !actor.Is(model.RoleCompany) {
		return nil, ErrForbidden
	}
	return s.tokens.ListByCompany(ctx, actor.UserID, 0)
}

// Dashboard returns the acting company's five most recent tokens and its
// purchase totals.
func (s *TokenService) Dashboard(ctx context.Context, actor model.Actor) (CompanyDashboard, error) {
	if !actor.Is(model.RoleCompany) {
		return CompanyDashboard{}, ErrForbidden
	}
	recent, err := s.tokens.ListByCompany(ctx, actor.UserID, recentTokens)
	if err != nil {
		return CompanyDashboard{}, err
	}
	count, spent, err := s.tokens.CompanySummary(ctx, actor.UserID)
	if err != nil {
		return CompanyDashboard{}, err
	}
	return CompanyDashboard{Recent: recent, TotalTokens: count, TotalSpent: spent}, nil
}
