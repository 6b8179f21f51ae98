package dto

import (
	"github.com/quickrollcall/rollcall/internal/domain/session"
)

// ToSessionDTO converts a session to its full persisted view, tokens and
// owner secret included. Only internal callers should use it.
func ToSessionDTO(s *session.Session) *SessionDTO {
	if s == nil {
		return nil
	}

	d := baseSessionDTO(s)
	d.Tokens = s.Tokens()
	d.OwnerToken = s.OwnerToken()
	return d
}

// ToOwnerSessionDTO is the organizer's view: no secrets, but the number of
// outstanding tokens.
func ToOwnerSessionDTO(s *session.Session) *SessionDTO {
	if s == nil {
		return nil
	}

	d := baseSessionDTO(s)
	count := s.TokensCount()
	d.TokensCount = &count
	return d
}

// ToPreviewSessionDTO strips tokens and the owner secret.
func ToPreviewSessionDTO(s *session.Session) *SessionDTO {
	if s == nil {
		return nil
	}
	return baseSessionDTO(s)
}

func ToAttendanceRecordDTO(r session.AttendanceRecord) *AttendanceRecordDTO {
	return &AttendanceRecordDTO{
		UserID:    r.UserID,
		Name:      r.Name,
		Surname:   r.Surname,
		Section:   r.Section,
		Timestamp: r.Timestamp.UnixMilli(),
	}
}

func ToAttendanceRecordDTOList(records []session.AttendanceRecord) []*AttendanceRecordDTO {
	dtos := make([]*AttendanceRecordDTO, 0, len(records))
	for _, r := range records {
		dtos = append(dtos, ToAttendanceRecordDTO(r))
	}
	return dtos
}

func baseSessionDTO(s *session.Session) *SessionDTO {
	d := &SessionDTO{
		ID:              s.ID(),
		IsActive:        s.IsActive(),
		CreatedAt:       s.CreatedAt().UnixMilli(),
		Name:            s.Name(),
		DurationMinutes: s.DurationMinutes(),
		Attendance:      ToAttendanceRecordDTOList(s.Attendance()),
	}
	if closedAt := s.ClosedAt(); closedAt != nil {
		ms := closedAt.UnixMilli()
		d.ClosedAt = &ms
	}
	return d
}
