package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// userSelect loads a user together with whichever profile matches its role.
const userSelect = `SELECT u.id, u.role, u.email, u.phone, u.password_hash, u.created_at,
		u.last_login, u.is_logged_in,
		cp.id, cp.company_name, cp.full_name, cp.nrc,
		op.id, op.full_name, op.nrc, op.checkpoint
	FROM users u
	LEFT JOIN company_profiles cp ON cp.user_id = u.id
	LEFT JOIN officer_profiles op ON op.user_id = u.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u         model.User
		role      string
		lastLogin sql.NullTime

		cpID                        sql.NullInt64
		cpName, cpFullName, cpNRC   sql.NullString
		opID                        sql.NullInt64
		opFullName, opNRC, opCheckp sql.NullString
	)
	err := s.Scan(&u.ID, &role, &u.Email, &u.Phone, &u.PasswordHash, &u.CreatedAt,
		&lastLogin, &u.IsLoggedIn,
		&cpID, &cpName, &cpFullName, &cpNRC,
		&opID, &opFullName, &opNRC, &opCheckp)
	if err != nil {
		return model.User{}, mapErr(err)
	}
	u.Role = model.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	if cpID.Valid {
		u.Company = &model.CompanyProfile{
			ID:          uint64(cpID.Int64),
			UserID:      u.ID,
			CompanyName: cpName.String,
			FullName:    cpFullName.String,
			NRC:         nullStr(cpNRC),
		}
	}
	if opID.Valid {
		u.Officer = &model.OfficerProfile{
			ID:         uint64(opID.Int64),
			UserID:     u.ID,
			FullName:   opFullName.String,
			NRC:        nullStr(opNRC),
			Checkpoint: nullStr(opCheckp),
		}
	}
	return u, nil
}

// CreateWithProfile inserts the user row and, depending on the role, its
// company or officer profile in a single transaction. Either both rows are
// written or neither is. A unique key violation on any of phone, email,
// company name or NRC yields ErrDuplicate.
func (r *UserRepo) CreateWithProfile(ctx context.Context, u model.User) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (role, email, phone, password_hash, created_at) VALUES (?,?,?,?,?)",
		string(u.Role), strings.ToLower(strings.TrimSpace(u.Email)), strings.TrimSpace(u.Phone),
		u.PasswordHash, time.Now().UTC())
	if err != nil {
		return 0, mapErr(err)
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	id := uint64(id64)

	switch u.Role {
	case model.RoleCompany:
		if u.Company == nil {
			return 0, ErrNotFound
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO company_profiles (user_id, company_name, full_name, nrc) VALUES (?,?,?,?)",
			id, u.Company.CompanyName, u.Company.FullName, u.Company.NRC)
	case model.RoleOfficer:
		if u.Officer == nil {
			return 0, ErrNotFound
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO officer_profiles (user_id, full_name, nrc, checkpoint) VALUES (?,?,?,?)",
			id, u.Officer.FullName, u.Officer.NRC, u.Officer.Checkpoint)
	case model.RoleAdmin:
	}
	if err != nil {
		return 0, mapErr(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return id, nil
}

// GetByPhone fetches a user (with profile) by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, userSelect+" WHERE u.phone=? LIMIT 1", strings.TrimSpace(phone))
	return scanUser(row)
}

// GetByID fetches a user (with profile) by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, userSelect+" WHERE u.id=? LIMIT 1", id)
	return scanUser(row)
}

// GetCompany fetches a user by id and fails with ErrNotFound unless it is a
// company account.
func (r *UserRepo) GetCompany(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, userSelect+" WHERE u.id=? AND u.role='company' LIMIT 1", id)
	return scanUser(row)
}

// UniqueProbe lists the candidate values that must not collide with
// existing users or profiles. Empty fields are not checked.
type UniqueProbe struct {
	Phone       string
	Email       string
	CompanyName string
	NRC         string
}

// FirstTaken returns the name of the first field in p that is already in
// use ("phone", "email", "company_name" or "nrc"), or "" when all are free.
func (r *UserRepo) FirstTaken(ctx context.Context, p UniqueProbe) (string, error) {
	checks := []struct {
		field, query, value string
	}{
		{"phone", "SELECT COUNT(*) FROM users WHERE phone=?", strings.TrimSpace(p.Phone)},
		{"email", "SELECT COUNT(*) FROM users WHERE email=?", strings.ToLower(strings.TrimSpace(p.Email))},
		{"company_name", "SELECT COUNT(*) FROM company_profiles WHERE company_name=?", strings.TrimSpace(p.CompanyName)},
		{"nrc", "SELECT (SELECT COUNT(*) FROM company_profiles WHERE nrc=?) + (SELECT COUNT(*) FROM officer_profiles WHERE nrc=?)", strings.TrimSpace(p.NRC)},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		args := []any{c.value}
		if c.field == "nrc" {
			args = append(args, c.value)
		}
		var n int
		if err := r.DB.QueryRowContext(ctx, c.query, args...).Scan(&n); err != nil {
			return "", err
		}
		if n > 0 {
			return c.field, nil
		}
	}
	return "", nil
}

// MarkLoggedIn stamps last_login and raises the is_logged_in flag.
func (r *UserRepo) MarkLoggedIn(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login=?, is_logged_in=TRUE WHERE id=?", at.UTC(), id)
	return err
}

// MarkLoggedOut clears the is_logged_in flag.
func (r *UserRepo) MarkLoggedOut(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_logged_in=FALSE WHERE id=?", id)
	return err
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListCompanies returns every company account that has a profile, ordered
// by company name.
func (r *UserRepo) ListCompanies(ctx context.Context) ([]model.CompanyRef, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT u.id, cp.company_name
		FROM users u JOIN company_profiles cp ON cp.user_id = u.id
		WHERE u.role='company'
		ORDER BY cp.company_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CompanyRef{}
	for rows.Next() {
		var c model.CompanyRef
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListOfficers returns all officer accounts with their profiles.
func (r *UserRepo) ListOfficers(ctx context.Context) ([]model.User, error) {
	return r.queryUsers(ctx, userSelect+" WHERE u.role='officer' ORDER BY u.id ASC")
}

// ActiveOfficers returns officers flagged as logged in whose last login is
// at or after since.
func (r *UserRepo) ActiveOfficers(ctx context.Context, since time.Time) ([]model.User, error) {
	return r.queryUsers(ctx,
		userSelect+" WHERE u.role='officer' AND u.is_logged_in=TRUE AND u.last_login >= ? ORDER BY u.last_login DESC",
		since.UTC())
}

func (r *UserRepo) queryUsers(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// requireAffected turns a zero-row UPDATE/DELETE into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
