package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/checkpoint-revenue/internal/model"
)

// ShiftRepo records officer duty periods.
type ShiftRepo struct{ DB *sql.DB }

func NewShiftRepo(db *sql.DB) *ShiftRepo { return &ShiftRepo{DB: db} }

// Open returns the officer's open shift (end_time IS NULL) or ErrNotFound.
func (r *ShiftRepo) Open(ctx context.Context, officerID uint64) (model.OfficerShift, error) {
	var (
		s   model.OfficerShift
		end sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, officer_id, start_time, end_time, checkpoint
		 FROM officer_shifts WHERE officer_id=? AND end_time IS NULL
		 ORDER BY start_time DESC LIMIT 1`, officerID).
		Scan(&s.ID, &s.OfficerID, &s.StartTime, &end, &s.Checkpoint)
	if err != nil {
		return model.OfficerShift{}, mapErr(err)
	}
	if end.Valid {
		t := end.Time
		s.EndTime = &t
	}
	return s, nil
}

// Start inserts a new open shift.
func (r *ShiftRepo) Start(ctx context.Context, officerID uint64, checkpoint string, at time.Time) (model.OfficerShift, error) {
	at = at.UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO officer_shifts (officer_id, start_time, checkpoint) VALUES (?,?,?)",
		officerID, at, checkpoint)
	if err != nil {
		return model.OfficerShift{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.OfficerShift{}, err
	}
	return model.OfficerShift{ID: uint64(id), OfficerID: officerID, StartTime: at, Checkpoint: checkpoint}, nil
}

// End closes the shift with the given id if it is still open.
func (r *ShiftRepo) End(ctx context.Context, shiftID uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE officer_shifts SET end_time=? WHERE id=? AND end_time IS NULL", at.UTC(), shiftID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
