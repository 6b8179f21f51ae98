package mappers

import (
	"fmt"
	"time"

	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/persistence/models"
)

type SessionMapper interface {
	ToEntity(model *models.SessionModel) (*session.Session, error)
	ToModel(entity *session.Session) *models.SessionModel
}

type SessionMapperImpl struct{}

func NewSessionMapper() SessionMapper {
	return &SessionMapperImpl{}
}

func (m *SessionMapperImpl) ToEntity(model *models.SessionModel) (*session.Session, error) {
	if model == nil {
		return nil, nil
	}

	var closedAt *time.Time
	if model.ClosedAt != nil {
		t := time.UnixMilli(*model.ClosedAt)
		closedAt = &t
	}

	attendance := make([]session.AttendanceRecord, 0, len(model.Attendance))
	for _, r := range model.Attendance {
		attendance = append(attendance, session.AttendanceRecord{
			UserID:    r.UserID,
			Name:      r.Name,
			Surname:   r.Surname,
			Section:   r.Section,
			Timestamp: time.UnixMilli(r.Timestamp),
		})
	}

	entity, err := session.ReconstructSession(
		model.ID,
		model.IsActive,
		time.UnixMilli(model.CreatedAt),
		closedAt,
		model.Name,
		model.DurationMinutes,
		attendance,
		model.Tokens,
		model.OwnerToken,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct session entity: %w", err)
	}
	return entity, nil
}

func (m *SessionMapperImpl) ToModel(entity *session.Session) *models.SessionModel {
	if entity == nil {
		return nil
	}

	var closedAt *int64
	if t := entity.ClosedAt(); t != nil {
		ms := t.UnixMilli()
		closedAt = &ms
	}

	records := entity.Attendance()
	attendance := make([]models.AttendanceRecordModel, 0, len(records))
	for _, r := range records {
		attendance = append(attendance, models.AttendanceRecordModel{
			UserID:    r.UserID,
			Name:      r.Name,
			Surname:   r.Surname,
			Section:   r.Section,
			Timestamp: r.Timestamp.UnixMilli(),
		})
	}

	return &models.SessionModel{
		ID:              entity.ID(),
		IsActive:        entity.IsActive(),
		CreatedAt:       entity.CreatedAt().UnixMilli(),
		ClosedAt:        closedAt,
		Name:            entity.Name(),
		DurationMinutes: entity.DurationMinutes(),
		Attendance:      attendance,
		Tokens:          entity.Tokens(),
		OwnerToken:      entity.OwnerToken(),
	}
}
