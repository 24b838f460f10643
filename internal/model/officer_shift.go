package model

import "time"

// OfficerShift records when an officer was on duty at a checkpoint. EndTime
// is nil while the shift is open.
type OfficerShift struct {
	ID         uint64     `json:"id"`
	OfficerID  uint64     `json:"officer_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Checkpoint string     `json:"checkpoint"`
}

// Open reports whether the shift has not been closed yet.
func (s OfficerShift) Open() bool { return s.EndTime == nil }
