package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// TokenRepo stores prepaid tokens. State transitions are conditional
// updates guarded on status='active', so two concurrent redemptions of the
// same serial can never both succeed.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const tokenSelect = `SELECT t.id, t.serial, t.vehicle_plate, t.cargo_type_id, COALESCE(c.name, ''),
		t.price, t.status, t.created_at, t.expiration_date, t.used_at, t.company_id
	FROM tokens t
	LEFT JOIN cargo_types c ON c.id = t.cargo_type_id`

func scanToken(s rowScanner) (model.Token, error) {
	var (
		t       model.Token
		status  string
		usedAt  sql.NullTime
		company sql.NullInt64
	)
	err := s.Scan(&t.ID, &t.Serial, &t.VehiclePlate, &t.CargoTypeID, &t.CargoTypeName,
		&t.Price, &status, &t.CreatedAt, &t.ExpirationDate, &usedAt, &company)
	if err != nil {
		return model.Token{}, mapErr(err)
	}
	t.Status = model.TokenStatus(status)
	if usedAt.Valid {
		u := usedAt.Time
		t.UsedAt = &u
	}
	if company.Valid {
		id := uint64(company.Int64)
		t.CompanyID = &id
	}
	return t, nil
}

// Create inserts t and sets its ID. A serial collision yields ErrDuplicate
// so the caller can draw a new serial.
func (r *TokenRepo) Create(ctx context.Context, t *model.Token) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO tokens (serial, vehicle_plate, cargo_type_id, price, status, created_at, expiration_date, company_id)
		 VALUES (?,?,?,?,?,?,?,?)`,
		t.Serial, t.VehiclePlate, t.CargoTypeID, t.Price, string(t.Status),
		t.CreatedAt.UTC(), t.ExpirationDate.UTC(), t.CompanyID)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetBySerial fetches a token by its serial or ErrNotFound.
func (r *TokenRepo) GetBySerial(ctx context.Context, serial string) (model.Token, error) {
	row := r.DB.QueryRowContext(ctx, tokenSelect+" WHERE t.serial=? LIMIT 1", serial)
	return scanToken(row)
}

// ExpireIfActive moves an active token to expired. It reports whether this
// call performed the transition.
func (r *TokenRepo) ExpireIfActive(ctx context.Context, serial string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET status='expired' WHERE serial=? AND status='active'", serial)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Redeem marks the token used at now provided it is still active and
// unexpired. When the transition happens and entry is non-nil, the vehicle
// log row is appended in the same transaction. It reports whether this call
// consumed the token.
func (r *TokenRepo) Redeem(ctx context.Context, serial string, now time.Time, entry *model.VehicleLog) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now = now.UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE tokens SET status='used', used_at=?
		 WHERE serial=? AND status='active' AND expiration_date > ?`,
		now, serial, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if entry != nil {
		if _, err := insertVehicleLog(ctx, tx, entry); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// ListByCompany returns the company's tokens newest first. limit <= 0
// returns all of them.
func (r *TokenRepo) ListByCompany(ctx context.Context, companyID uint64, limit int) ([]model.Token, error) {
	q := tokenSelect + " WHERE t.company_id=? ORDER BY t.created_at DESC, t.id DESC"
	args := []any{companyID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Token{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CompanySummary returns how many tokens the company bought and the sum of
// their prices.
func (r *TokenRepo) CompanySummary(ctx context.Context, companyID uint64) (int64, float64, error) {
	var (
		count int64
		spent float64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(price), 0) FROM tokens WHERE company_id=?", companyID).
		Scan(&count, &spent)
	return count, spent, err
}
