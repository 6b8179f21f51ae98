package usecases

import (
	"context"

	"github.com/quickrollcall/rollcall/internal/application/rollcall/dto"
	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

type sessionReader interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// PreviewSessionUseCase shows what an export would contain without closing
// or deleting anything.
type PreviewSessionUseCase struct {
	sessions sessionReader
	logger   logger.Interface
}

func NewPreviewSessionUseCase(sessions sessionReader, logger logger.Interface) *PreviewSessionUseCase {
	return &PreviewSessionUseCase{
		sessions: sessions,
		logger:   logger,
	}
}

func (uc *PreviewSessionUseCase) Execute(ctx context.Context, sessionID string) (*dto.SessionDTO, error) {
	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		uc.logger.Errorw("failed to load session for preview", "session_id", sessionID, "error", err)
		return nil, err
	}
	if s == nil {
		return nil, session.ErrSessionNotFound
	}
	return dto.ToPreviewSessionDTO(s), nil
}
