package usecases

import (
	"context"
	"time"

	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	"github.com/quickrollcall/rollcall/internal/shared/goroutine"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

// DefaultPurgeTimeout bounds the detached delete that follows an export.
const DefaultPurgeTimeout = 10 * time.Second

type sessionStore interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	Close(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ExportResult carries the snapshot to render. Purged is closed once the
// detached delete has finished, successfully or not.
type ExportResult struct {
	Snapshot *session.Session
	Purged   <-chan struct{}
}

// ExportSessionUseCase closes a session, snapshots it and schedules its
// deletion. The snapshot reflects attendance at call time; the delete runs
// on its own context and its failure never reaches the caller.
type ExportSessionUseCase struct {
	sessions     sessionStore
	metrics      *metrics.Metrics
	logger       logger.Interface
	purgeTimeout time.Duration
}

func NewExportSessionUseCase(
	sessions sessionStore,
	m *metrics.Metrics,
	logger logger.Interface,
) *ExportSessionUseCase {
	return &ExportSessionUseCase{
		sessions:     sessions,
		metrics:      m,
		logger:       logger,
		purgeTimeout: DefaultPurgeTimeout,
	}
}

func (uc *ExportSessionUseCase) Execute(ctx context.Context, sessionID string) (*ExportResult, error) {
	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		uc.logger.Errorw("failed to load session for export", "session_id", sessionID, "error", err)
		return nil, err
	}
	if s == nil {
		return nil, session.ErrSessionNotFound
	}

	if s.IsActive() {
		closed, err := uc.sessions.Close(ctx, sessionID)
		if err != nil {
			uc.logger.Errorw("failed to close session for export", "session_id", sessionID, "error", err)
			return nil, err
		}
		if closed == nil {
			return nil, session.ErrSessionNotFound
		}
		s = closed
	}

	snapshot := s.Snapshot()
	purged := goroutine.Detached(uc.logger, "export-purge", uc.purgeTimeout, func(ctx context.Context) {
		if _, err := uc.sessions.Delete(ctx, sessionID); err != nil {
			uc.metrics.PurgeFailed()
			uc.logger.Warnw("failed to purge exported session", "session_id", sessionID, "error", err)
			return
		}
		uc.logger.Infow("exported session purged", "session_id", sessionID)
	})

	uc.metrics.Exported()
	uc.logger.Infow("session exported", "session_id", sessionID, "attendees", len(snapshot.Attendance()))
	return &ExportResult{Snapshot: snapshot, Purged: purged}, nil
}
