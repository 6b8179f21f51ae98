package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickrollcall/rollcall/internal/application/rollcall"
	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	"github.com/quickrollcall/rollcall/internal/infrastructure/repository"
	"github.com/quickrollcall/rollcall/internal/infrastructure/token"
	"github.com/quickrollcall/rollcall/internal/shared/config"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

func newTestManager(t *testing.T) (*rollcall.SessionManager, *metrics.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	conn := cache.NewConnector(config.RedisConfig{URL: "redis://" + mr.Addr()}, logger.NewNopLogger())
	t.Cleanup(func() { _ = conn.Close() })

	repo := repository.NewSessionRepository(cache.NewStore(conn, logger.NewNopLogger()), time.Hour)
	m := metrics.New(prometheus.NewRegistry())
	return rollcall.NewSessionManager(repo, token.NewGenerator(), m, logger.NewNopLogger()), m
}

func waitPurged(t *testing.T, res *ExportResult) {
	t.Helper()
	select {
	case <-res.Purged:
	case <-time.After(2 * time.Second):
		t.Fatal("purge did not finish")
	}
}

func TestExportSessionUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	mgr, m := newTestManager(t)

	s, err := mgr.Create(ctx, rollcall.CreateSessionCommand{})
	require.NoError(t, err)
	tok, err := mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)
	_, err = mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)
	res, err := mgr.SubmitAttendance(ctx, s.ID(), tok,
		session.AttendanceInput{UserID: "1", Name: "Ada", Surname: "Lovelace", Section: "A"}, "")
	require.NoError(t, err)
	require.True(t, res.OK)

	uc := NewExportSessionUseCase(mgr, m, logger.NewNopLogger())
	out, err := uc.Execute(ctx, s.ID())
	require.NoError(t, err)

	assert.False(t, out.Snapshot.IsActive())
	assert.NotNil(t, out.Snapshot.ClosedAt())
	assert.Empty(t, out.Snapshot.Tokens())
	assert.Len(t, out.Snapshot.Attendance(), 1)

	waitPurged(t, out)
	got, err := mgr.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Len(t, out.Snapshot.Attendance(), 1, "snapshot survives the purge")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Exports))

	_, err = uc.Execute(ctx, s.ID())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestExportSessionUseCase_AlreadyClosedKeepsClosedAt(t *testing.T) {
	ctx := context.Background()
	mgr, m := newTestManager(t)

	s, err := mgr.Create(ctx, rollcall.CreateSessionCommand{})
	require.NoError(t, err)
	closed, err := mgr.Close(ctx, s.ID())
	require.NoError(t, err)

	out, err := NewExportSessionUseCase(mgr, m, logger.NewNopLogger()).Execute(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, closed.ClosedAt().Equal(*out.Snapshot.ClosedAt()))
	waitPurged(t, out)
}

type mockSessionStore struct {
	GetFunc    func(ctx context.Context, id string) (*session.Session, error)
	CloseFunc  func(ctx context.Context, id string) (*session.Session, error)
	DeleteFunc func(ctx context.Context, id string) (bool, error)
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockSessionStore) Close(ctx context.Context, id string) (*session.Session, error) {
	return m.CloseFunc(ctx, id)
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) (bool, error) {
	return m.DeleteFunc(ctx, id)
}

func TestExportSessionUseCase_PurgeFailureIsSwallowed(t *testing.T) {
	closedAt := time.UnixMilli(1_700_000_060_000)
	s, err := session.ReconstructSession("sess-1", false, time.UnixMilli(1_700_000_000_000), &closedAt,
		nil, nil, nil, nil, "owner")
	require.NoError(t, err)

	var purgeCtxHadDeadline bool
	store := &mockSessionStore{
		GetFunc: func(ctx context.Context, id string) (*session.Session, error) { return s, nil },
		DeleteFunc: func(ctx context.Context, id string) (bool, error) {
			_, purgeCtxHadDeadline = ctx.Deadline()
			return false, errors.New("connection reset")
		},
	}
	m := metrics.New(prometheus.NewRegistry())

	reqCtx, cancel := context.WithCancel(context.Background())
	out, err := NewExportSessionUseCase(store, m, logger.NewNopLogger()).Execute(reqCtx, "sess-1")
	cancel()
	require.NoError(t, err)
	require.NotNil(t, out.Snapshot)

	waitPurged(t, out)
	assert.True(t, purgeCtxHadDeadline)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PurgeFailures))
}

func TestExportSessionUseCase_LoadFailure(t *testing.T) {
	store := &mockSessionStore{
		GetFunc: func(ctx context.Context, id string) (*session.Session, error) {
			return nil, errors.New("store down")
		},
	}
	_, err := NewExportSessionUseCase(store, nil, logger.NewNopLogger()).Execute(context.Background(), "x")
	assert.Error(t, err)
}

func TestPreviewSessionUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	mgr, _ := newTestManager(t)

	s, err := mgr.Create(ctx, rollcall.CreateSessionCommand{})
	require.NoError(t, err)
	_, err = mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)

	uc := NewPreviewSessionUseCase(mgr, logger.NewNopLogger())
	out, err := uc.Execute(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, out.IsActive)
	assert.Empty(t, out.Tokens)
	assert.Empty(t, out.OwnerToken)

	still, err := mgr.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, still.IsActive())

	_, err = uc.Execute(ctx, "absent")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
