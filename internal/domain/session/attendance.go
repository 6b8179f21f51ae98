package session

import "time"

// AttendanceInput is the participant-supplied part of an attendance record.
// Fields are validated by the HTTP layer.
type AttendanceInput struct {
	UserID  string
	Name    string
	Surname string
	Section string
}

// AttendanceRecord is one accepted submission. Timestamp is assigned by the
// server at acceptance.
type AttendanceRecord struct {
	UserID    string
	Name      string
	Surname   string
	Section   string
	Timestamp time.Time
}

func newAttendanceRecord(input AttendanceInput, at time.Time) AttendanceRecord {
	return AttendanceRecord{
		UserID:    input.UserID,
		Name:      input.Name,
		Surname:   input.Surname,
		Section:   input.Section,
		Timestamp: at,
	}
}
