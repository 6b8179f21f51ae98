package handlers

import (
	"context"
	"io"

	"github.com/quickrollcall/rollcall/internal/application/rollcall"
	"github.com/quickrollcall/rollcall/internal/application/rollcall/dto"
	"github.com/quickrollcall/rollcall/internal/application/rollcall/usecases"
	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
)

// Service interfaces for the roll-call handlers

type sessionService interface {
	Create(ctx context.Context, cmd rollcall.CreateSessionCommand) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Close(ctx context.Context, id string) (*session.Session, error)
	IssueToken(ctx context.Context, id string) (string, error)
}

type attendanceService interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	IssueToken(ctx context.Context, id string) (string, error)
	ValidateToken(ctx context.Context, id, token string) (rollcall.ValidateResult, error)
	SubmitAttendance(ctx context.Context, id, token string, input session.AttendanceInput, clientID string) (rollcall.SubmitResult, error)
}

type exportSessionUseCase interface {
	Execute(ctx context.Context, sessionID string) (*usecases.ExportResult, error)
}

type previewSessionUseCase interface {
	Execute(ctx context.Context, sessionID string) (*dto.SessionDTO, error)
}

type documentRenderer interface {
	Render(w io.Writer, s *session.Session) error
	ContentType() string
	FileExtension() string
}

type qrEncoder interface {
	PNG(content string) ([]byte, error)
	DataURL(content string) (string, error)
}

type redisProbe interface {
	Status(ctx context.Context) cache.Status
	Endpoint() string
}

type identityGenerator interface {
	NewIdentity() (string, error)
}
