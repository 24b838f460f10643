package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// LogFilter narrows vehicle log queries. Nil pointers and empty strings
// mean "no predicate".
type LogFilter struct {
	CompanyID  *uint64
	Checkpoint string
	Month      *int
	Year       *int
	Week       *int       // ISO week number
	Day        string     // weekday name as returned by DAYNAME(), e.g. "Monday"
	Hour       *int       // 0..23
	Date       *time.Time // calendar day (UTC)
	OfficerID  *uint64
	From       *time.Time // inclusive
	To         *time.Time // exclusive
}

// OfficerDay is one row of the officer performance aggregate.
type OfficerDay struct {
	OfficerID   uint64    `json:"officer_id"`
	OfficerName string    `json:"officer_name"`
	Day         time.Time `json:"date"`
	Entries     int64     `json:"entries"`
	Amount      float64   `json:"amount"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// VehicleLogRepo is the append-only checkpoint ledger.
type VehicleLogRepo struct{ DB *sql.DB }

func NewVehicleLogRepo(db *sql.DB) *VehicleLogRepo { return &VehicleLogRepo{DB: db} }

// Create appends a log row and returns its id.
func (r *VehicleLogRepo) Create(ctx context.Context, l *model.VehicleLog) (uint64, error) {
	return insertVehicleLog(ctx, r.DB, l)
}

func insertVehicleLog(ctx context.Context, db execer, l *model.VehicleLog) (uint64, error) {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO vehicle_logs
			(number_plate, company_id, phone, email, location, checkpoint, amount_paid, officer_id, timestamp, token_serial)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		l.NumberPlate, l.CompanyID, l.Phone, l.Email, l.Location, l.Checkpoint,
		l.AmountPaid, l.OfficerID, l.Timestamp.UTC(), l.TokenSerial)
	if err != nil {
		return 0, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	l.ID = uint64(id)
	return l.ID, nil
}

func (f LogFilter) where() (string, []any) {
	where := []string{}
	args := []any{}

	if f.CompanyID != nil {
		where = append(where, "l.company_id = ?")
		args = append(args, *f.CompanyID)
	}
	if f.Checkpoint != "" {
		where = append(where, "l.checkpoint = ?")
		args = append(args, f.Checkpoint)
	}
	if f.Month != nil {
		where = append(where, "MONTH(l.timestamp) = ?")
		args = append(args, *f.Month)
	}
	if f.Year != nil {
		where = append(where, "YEAR(l.timestamp) = ?")
		args = append(args, *f.Year)
	}
	if f.Week != nil {
		where = append(where, "WEEK(l.timestamp, 3) = ?")
		args = append(args, *f.Week)
	}
	if f.Day != "" {
		where = append(where, "DAYNAME(l.timestamp) = ?")
		args = append(args, f.Day)
	}
	if f.Hour != nil {
		where = append(where, "HOUR(l.timestamp) = ?")
		args = append(args, *f.Hour)
	}
	if f.Date != nil {
		where = append(where, "DATE(l.timestamp) = ?")
		args = append(args, f.Date.Format("2006-01-02"))
	}
	if f.OfficerID != nil {
		where = append(where, "l.officer_id = ?")
		args = append(args, *f.OfficerID)
	}
	if f.From != nil {
		where = append(where, "l.timestamp >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "l.timestamp < ?")
		args = append(args, f.To.UTC())
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return cond, args
}

// List returns the logs matching f, newest first, with company and officer
// names resolved. Logs whose company is missing are labelled Unknown.
func (r *VehicleLogRepo) List(ctx context.Context, f LogFilter) ([]model.VehicleLog, error) {
	cond, args := f.where()
	q := `SELECT l.id, l.number_plate, l.company_id, COALESCE(cp.company_name, ?),
			l.phone, l.email, l.location, l.checkpoint, l.amount_paid,
			l.officer_id, COALESCE(op.full_name, ''), l.timestamp, l.token_serial
		FROM vehicle_logs l
		LEFT JOIN company_profiles cp ON cp.user_id = l.company_id
		LEFT JOIN officer_profiles op ON op.user_id = l.officer_id
		WHERE ` + cond + `
		ORDER BY l.timestamp DESC, l.id DESC`

	rows, err := r.DB.QueryContext(ctx, q, append([]any{model.UnknownCompany}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.VehicleLog{}
	for rows.Next() {
		var (
			l       model.VehicleLog
			company sql.NullInt64
			officer sql.NullInt64
			serial  sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.NumberPlate, &company, &l.CompanyName,
			&l.Phone, &l.Email, &l.Location, &l.Checkpoint, &l.AmountPaid,
			&officer, &l.OfficerName, &l.Timestamp, &serial); err != nil {
			return nil, err
		}
		if company.Valid {
			id := uint64(company.Int64)
			l.CompanyID = &id
		}
		if officer.Valid {
			id := uint64(officer.Int64)
			l.OfficerID = &id
		}
		l.TokenSerial = nullStr(serial)
		out = append(out, l)
	}
	return out, rows.Err()
}

// Checkpoints returns the distinct non-empty checkpoint names seen in the ledger.
func (r *VehicleLogRepo) Checkpoints(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT checkpoint FROM vehicle_logs WHERE checkpoint <> '' ORDER BY checkpoint ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Years returns the distinct calendar years present in the ledger, newest first.
func (r *VehicleLogRepo) Years(ctx context.Context) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT DISTINCT YEAR(timestamp) AS y FROM vehicle_logs ORDER BY y DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// OfficerDaily aggregates amount_paid per officer per calendar day over the
// logs matching f. Rows without an officer are skipped.
func (r *VehicleLogRepo) OfficerDaily(ctx context.Context, f LogFilter) ([]OfficerDay, error) {
	cond, args := f.where()
	q := `SELECT l.officer_id, COALESCE(op.full_name, u.phone, ''), DATE(l.timestamp) AS d,
			COUNT(*), COALESCE(SUM(l.amount_paid), 0)
		FROM vehicle_logs l
		LEFT JOIN users u ON u.id = l.officer_id
		LEFT JOIN officer_profiles op ON op.user_id = l.officer_id
		WHERE l.officer_id IS NOT NULL AND ` + cond + `
		GROUP BY l.officer_id, op.full_name, u.phone, d
		ORDER BY d DESC, l.officer_id ASC`

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OfficerDay{}
	for rows.Next() {
		var d OfficerDay
		if err := rows.Scan(&d.OfficerID, &d.OfficerName, &d.Day, &d.Entries, &d.Amount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
