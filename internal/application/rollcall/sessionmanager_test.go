package rollcall

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	"github.com/quickrollcall/rollcall/internal/infrastructure/repository"
	"github.com/quickrollcall/rollcall/internal/infrastructure/token"
	"github.com/quickrollcall/rollcall/internal/shared/config"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	mgr     *SessionManager
	repo    session.Repository
	clock   *testClock
	mr      *miniredis.Miniredis
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	conn := cache.NewConnector(config.RedisConfig{URL: "redis://" + mr.Addr()}, logger.NewNopLogger())
	t.Cleanup(func() { _ = conn.Close() })

	repo := repository.NewSessionRepository(cache.NewStore(conn, logger.NewNopLogger()), time.Hour)
	clock := &testClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	m := metrics.New(prometheus.NewRegistry())

	return &fixture{
		mgr:     NewSessionManager(repo, token.NewGenerator(), m, logger.NewNopLogger(), WithClock(clock.Now)),
		repo:    repo,
		clock:   clock,
		mr:      mr,
		metrics: m,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func ada() session.AttendanceInput {
	return session.AttendanceInput{UserID: "42", Name: "Ada", Surname: "Lovelace", Section: "A"}
}

func TestSessionManager_MathClassWalkthrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{Name: ptr("Math 101"), DurationMinutes: ptr(1)})
	require.NoError(t, err)
	assert.True(t, s.IsActive())
	assert.Len(t, s.OwnerToken(), 48)

	tok1, err := f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)
	assert.Len(t, tok1, 32)

	res, err := f.mgr.SubmitAttendance(ctx, s.ID(), tok1, ada(), "")
	require.NoError(t, err)
	assert.True(t, res.OK)
	require.NotNil(t, res.Session)
	assert.Len(t, res.Session.Attendance(), 1)

	res, err = f.mgr.SubmitAttendance(ctx, s.ID(), tok1, ada(), "")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, session.ReasonTokenInvalid, res.Reason)

	f.clock.Advance(61 * time.Second)
	got, err := f.mgr.Get(ctx, s.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsActive())
	assert.Empty(t, got.Tokens())
	assert.True(t, f.clock.Now().Equal(*got.ClosedAt()))
}

func TestSessionManager_ZeroDurationClosesOnNextRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{DurationMinutes: ptr(0)})
	require.NoError(t, err)

	got, err := f.mgr.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.False(t, got.IsActive())

	stored, err := f.repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsActive(), "auto-close must be persisted")
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SessionsClosed.WithLabelValues("auto")))
}

func TestSessionManager_LargeDurationStaysActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{DurationMinutes: ptr(200_000_000)})
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	got, err := f.mgr.Get(ctx, s.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsActive())
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.SessionsClosed.WithLabelValues("auto")))
}

func TestSessionManager_ExpiryIsOnlyAppliedOnRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{DurationMinutes: ptr(1)})
	require.NoError(t, err)
	_, err = f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	stored, err := f.repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsActive(), "nothing closes a session that nobody reads")

	tok, err := f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)
	assert.Empty(t, tok)

	stored, err = f.repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsActive())
	assert.Empty(t, stored.Tokens())
}

func TestSessionManager_CloseRefreshesClosedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{})
	require.NoError(t, err)
	_, err = f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)

	first, err := f.mgr.Close(ctx, s.ID())
	require.NoError(t, err)
	assert.False(t, first.IsActive())
	assert.Empty(t, first.Tokens())

	f.clock.Advance(time.Minute)
	second, err := f.mgr.Close(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, first.ClosedAt().Add(time.Minute).Equal(*second.ClosedAt()))

	missing, err := f.mgr.Close(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionManager_SubmitPrecedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open, err := f.mgr.Create(ctx, CreateSessionCommand{})
	require.NoError(t, err)
	tokA, err := f.mgr.IssueToken(ctx, open.ID())
	require.NoError(t, err)
	tokB, err := f.mgr.IssueToken(ctx, open.ID())
	require.NoError(t, err)

	res, err := f.mgr.SubmitAttendance(ctx, open.ID(), tokA, ada(), "device-1")
	require.NoError(t, err)
	require.True(t, res.OK)

	closed, err := f.mgr.Create(ctx, CreateSessionCommand{})
	require.NoError(t, err)
	_, err = f.mgr.Close(ctx, closed.ID())
	require.NoError(t, err)

	grace := session.AttendanceInput{UserID: "7", Name: "Grace", Surname: "Hopper", Section: "B"}

	tests := []struct {
		name      string
		sessionID string
		token     string
		input     session.AttendanceInput
		clientID  string
		want      session.Reason
	}{
		{name: "absent session", sessionID: "absent", token: tokB, input: grace, want: session.ReasonSessionNotFound},
		{name: "closed beats device", sessionID: closed.ID(), token: tokB, input: grace, clientID: "device-1", want: session.ReasonSessionClosed},
		{name: "device beats token", sessionID: open.ID(), token: "bogus", input: grace, clientID: "device-1", want: session.ReasonDuplicateDeviceSubmission},
		{name: "token beats duplicate user", sessionID: open.ID(), token: "bogus", input: ada(), clientID: "device-2", want: session.ReasonTokenInvalid},
		{name: "duplicate user", sessionID: open.ID(), token: tokB, input: ada(), clientID: "device-2", want: session.ReasonDuplicateAttendance},
		{name: "consumed token", sessionID: open.ID(), token: tokA, input: grace, want: session.ReasonTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.mgr.SubmitAttendance(ctx, tt.sessionID, tt.token, tt.input, tt.clientID)
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tt.want, res.Reason)
		})
	}

	// Rejections leave tokB usable.
	res, err = f.mgr.SubmitAttendance(ctx, open.ID(), tokB, grace, "device-2")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Len(t, res.Session.Attendance(), 2)
	assert.Empty(t, res.Session.Tokens())
	assert.True(t, f.mr.Exists("submitted:"+open.ID()))
}

func TestSessionManager_IssueToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.mgr.IssueToken(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, tok)

	s, err := f.mgr.Create(ctx, CreateSessionCommand{})
	require.NoError(t, err)
	tok, err = f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)

	stored, err := f.repo.GetByID(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{tok}, stored.Tokens())

	_, err = f.mgr.Close(ctx, s.ID())
	require.NoError(t, err)
	tok, err = f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSessionManager_ValidateToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{Name: ptr("Physics")})
	require.NoError(t, err)
	tok, err := f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)

	res, err := f.mgr.ValidateToken(ctx, s.ID(), tok)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "Physics", *res.SessionName)

	res, err = f.mgr.ValidateToken(ctx, s.ID(), tok)
	require.NoError(t, err)
	assert.True(t, res.Valid, "validation does not consume the token")

	res, err = f.mgr.ValidateToken(ctx, s.ID(), "nope")
	require.NoError(t, err)
	assert.Equal(t, session.ReasonTokenInvalid, res.Reason)

	res, err = f.mgr.ValidateToken(ctx, "absent", tok)
	require.NoError(t, err)
	assert.Equal(t, session.ReasonSessionNotFound, res.Reason)

	_, err = f.mgr.Close(ctx, s.ID())
	require.NoError(t, err)
	res, err = f.mgr.ValidateToken(ctx, s.ID(), tok)
	require.NoError(t, err)
	assert.Equal(t, session.ReasonSessionClosed, res.Reason)
}

func TestSessionManager_VerifyOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		supplied string
		want     bool
	}{
		{name: "owner", id: s.ID(), supplied: s.OwnerToken(), want: true},
		{name: "wrong secret", id: s.ID(), supplied: "x" + s.OwnerToken()[1:]},
		{name: "empty secret", id: s.ID(), supplied: ""},
		{name: "absent session", id: "absent", supplied: s.OwnerToken()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.mgr.VerifyOwner(ctx, tt.id, tt.supplied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSessionManager_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{})
	require.NoError(t, err)
	tok, err := f.mgr.IssueToken(ctx, s.ID())
	require.NoError(t, err)
	_, err = f.mgr.SubmitAttendance(ctx, s.ID(), tok, ada(), "device-1")
	require.NoError(t, err)

	deleted, err := f.mgr.Delete(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := f.mgr.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, f.mr.Exists("submitted:"+s.ID()))
}

func TestSessionManager_StoreFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.mgr.Create(ctx, CreateSessionCommand{})
	require.NoError(t, err)

	f.mr.Close()

	_, err = f.mgr.Get(ctx, s.ID())
	assert.Error(t, err)

	_, err = f.mgr.SubmitAttendance(ctx, s.ID(), "tok", ada(), "")
	assert.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Submissions.WithLabelValues("error")))
}
