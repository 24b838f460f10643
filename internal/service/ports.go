package service

import (
	"context"
	"time"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
	"github.com/iliyamo/checkpoint-revenue/internal/queue"
	"github.com/iliyamo/checkpoint-revenue/internal/repository"
)

// UserStore is the identity persistence the services depend on.
type UserStore interface {
	CreateWithProfile(ctx context.Context, u model.User) (uint64, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetCompany(ctx context.Context, id uint64) (model.User, error)
	FirstTaken(ctx context.Context, p repository.UniqueProbe) (string, error)
	MarkLoggedIn(ctx context.Context, id uint64, at time.Time) error
	MarkLoggedOut(ctx context.Context, id uint64) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	ListCompanies(ctx context.Context) ([]model.CompanyRef, error)
	ListOfficers(ctx context.Context) ([]model.User, error)
	ActiveOfficers(ctx context.Context, since time.Time) ([]model.User, error)
}

// SessionStore persists hashed refresh tokens.
type SessionStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// CargoStore is the cargo catalog.
type CargoStore interface {
	List(ctx context.Context) ([]model.CargoType, error)
	GetByID(ctx context.Context, id uint64) (model.CargoType, error)
	GetByName(ctx context.Context, name string) (model.CargoType, error)
	Create(ctx context.Context, name string, price float64) (model.CargoType, error)
	Update(ctx context.Context, c model.CargoType) error
	UpdatePrice(ctx context.Context, id uint64, price float64) error
	Delete(ctx context.Context, id uint64) error
}

// TokenStore is the token ledger. ExpireIfActive and Redeem are
// compare-and-set transitions that report whether this call won.
type TokenStore interface {
	Create(ctx context.Context, t *model.Token) error
	GetBySerial(ctx context.Context, serial string) (model.Token, error)
	ExpireIfActive(ctx context.Context, serial string) (bool, error)
	Redeem(ctx context.Context, serial string, now time.Time, entry *model.VehicleLog) (bool, error)
	ListByCompany(ctx context.Context, companyID uint64, limit int) ([]model.Token, error)
	CompanySummary(ctx context.Context, companyID uint64) (int64, float64, error)
}

// LogStore is the vehicle-log ledger.
type LogStore interface {
	Create(ctx context.Context, l *model.VehicleLog) (uint64, error)
	List(ctx context.Context, f repository.LogFilter) ([]model.VehicleLog, error)
	Checkpoints(ctx context.Context) ([]string, error)
	Years(ctx context.Context) ([]int, error)
	OfficerDaily(ctx context.Context, f repository.LogFilter) ([]repository.OfficerDay, error)
}

// ShiftStore records officer shifts.
type ShiftStore interface {
	Open(ctx context.Context, officerID uint64) (model.OfficerShift, error)
	Start(ctx context.Context, officerID uint64, checkpoint string, at time.Time) (model.OfficerShift, error)
	End(ctx context.Context, shiftID uint64, at time.Time) error
}

// Denylist remembers revoked access-token ids until they expire.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JobPublisher hands report e-mail jobs to the message broker.
type JobPublisher interface {
	PublishReportEmail(ctx context.Context, job queue.ReportEmailJob) error
}

// Archiver stores a copy of a rendered report and returns its object key.
type Archiver interface {
	Put(ctx context.Context, name, contentType string, body []byte) (string, error)
}
