// Package rollcall implements the session lifecycle: creation, lazy expiry,
// token issuance and attendance submission.
package rollcall

import (
	"context"
	"fmt"
	"time"

	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/metrics"
	"github.com/quickrollcall/rollcall/internal/infrastructure/token"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

const (
	closeTriggerManual = "manual"
	closeTriggerAuto   = "auto"
)

type CreateSessionCommand struct {
	Name            *string
	DurationMinutes *int
}

// ValidateResult is the read-only answer to "may this token be used now?".
type ValidateResult struct {
	Valid       bool
	Reason      session.Reason
	SessionName *string
}

// SubmitResult is the outcome of a submission. Business rejections are
// reported through Reason; only store failures come back as errors.
type SubmitResult struct {
	OK      bool
	Reason  session.Reason
	Session *session.Session
}

// SessionManager is the session state machine over a Repository.
//
// Every mutation is read-modify-write with no lock or compare-and-set. Two
// concurrent submissions to one session can both pass validation before
// either write lands, so a token may be redeemed twice or a userId recorded
// twice, and the later write wins. Expiry is evaluated lazily whenever a
// session is read; nothing sweeps sessions in the background.
type SessionManager struct {
	repo    session.Repository
	tokens  token.Generator
	metrics *metrics.Metrics
	logger  logger.Interface
	now     func() time.Time
}

type ManagerOption func(*SessionManager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

func NewSessionManager(
	repo session.Repository,
	tokens token.Generator,
	m *metrics.Metrics,
	log logger.Interface,
	opts ...ManagerOption,
) *SessionManager {
	mgr := &SessionManager{
		repo:    repo,
		tokens:  tokens,
		metrics: m,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Create opens a new active session with a fresh id and owner secret.
func (m *SessionManager) Create(ctx context.Context, cmd CreateSessionCommand) (*session.Session, error) {
	id, err := m.tokens.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	ownerToken, err := m.tokens.NewOwnerToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate owner token: %w", err)
	}

	s, err := session.NewSession(id, ownerToken, cmd.Name, cmd.DurationMinutes, m.now())
	if err != nil {
		return nil, err
	}

	if err := m.repo.Save(ctx, s); err != nil {
		m.logger.Errorw("failed to save new session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.metrics.SessionCreated()
	m.logger.Infow("session created", "session_id", id, "duration_minutes", cmd.DurationMinutes)
	return s, nil
}

// Get returns the session or nil when it is absent. An active session whose
// duration has run out is closed and persisted before it is returned.
func (m *SessionManager) Get(ctx context.Context, id string) (*session.Session, error) {
	s, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s == nil {
		return nil, nil
	}

	if s.AutoCloseIfExpired(m.now()) {
		if err := m.repo.Save(ctx, s); err != nil {
			m.logger.Errorw("failed to persist auto-close", "session_id", id, "error", err)
			return nil, fmt.Errorf("failed to persist auto-close: %w", err)
		}
		m.metrics.SessionClosed(closeTriggerAuto)
		m.logger.Infow("session auto-closed", "session_id", id)
	}
	return s, nil
}

// Close closes the session, or returns nil when it is absent. Closing an
// already closed session refreshes closedAt.
func (m *SessionManager) Close(ctx context.Context, id string) (*session.Session, error) {
	s, err := m.Get(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}

	s.Close(m.now())
	if err := m.repo.Save(ctx, s); err != nil {
		m.logger.Errorw("failed to persist close", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to close session: %w", err)
	}

	m.metrics.SessionClosed(closeTriggerManual)
	m.logger.Infow("session closed", "session_id", id, "attendees", len(s.Attendance()))
	return s, nil
}

// VerifyOwner reports whether supplied is the owner secret of an existing
// session. An empty secret is rejected without touching the store.
func (m *SessionManager) VerifyOwner(ctx context.Context, id, supplied string) (bool, error) {
	if supplied == "" {
		return false, nil
	}
	s, err := m.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return s != nil && s.VerifyOwner(supplied), nil
}

// IssueToken mints a single-use attendance token. It returns "" when the
// session is absent or closed.
func (m *SessionManager) IssueToken(ctx context.Context, id string) (string, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if s == nil || !s.IsActive() {
		return "", nil
	}

	tok, err := m.tokens.NewAttendanceToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate attendance token: %w", err)
	}
	if err := s.AddToken(tok); err != nil {
		return "", err
	}

	if err := m.repo.Save(ctx, s); err != nil {
		m.logger.Errorw("failed to persist token", "session_id", id, "error", err)
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	m.logger.Debugw("attendance token issued", "session_id", id, "token", utils.MaskSecret(tok))
	return tok, nil
}

// ValidateToken checks a token without consuming it.
func (m *SessionManager) ValidateToken(ctx context.Context, id, tok string) (ValidateResult, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return ValidateResult{}, err
	}

	switch {
	case s == nil:
		return ValidateResult{Reason: session.ReasonSessionNotFound}, nil
	case !s.IsActive():
		return ValidateResult{Reason: session.ReasonSessionClosed, SessionName: s.Name()}, nil
	case !s.HasToken(tok):
		return ValidateResult{Reason: session.ReasonTokenInvalid, SessionName: s.Name()}, nil
	}
	return ValidateResult{Valid: true, SessionName: s.Name()}, nil
}

// SubmitAttendance redeems tok for one record. Checks run in a fixed order
// and the first failure wins: session not found, session closed, device
// already submitted (only when clientID is set), token invalid, user already
// recorded.
func (m *SessionManager) SubmitAttendance(
	ctx context.Context,
	id, tok string,
	input session.AttendanceInput,
	clientID string,
) (SubmitResult, error) {
	result, err := m.submit(ctx, id, tok, input, clientID)
	if err != nil {
		m.metrics.Submission("error")
		return SubmitResult{}, err
	}

	if result.OK {
		m.metrics.Submission("ok")
		m.logger.Infow("attendance recorded", "session_id", id, "user_id", input.UserID)
	} else {
		m.metrics.Submission(string(result.Reason))
		m.logger.Debugw("attendance rejected", "session_id", id, "reason", result.Reason)
	}
	return result, nil
}

func (m *SessionManager) submit(
	ctx context.Context,
	id, tok string,
	input session.AttendanceInput,
	clientID string,
) (SubmitResult, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return SubmitResult{}, err
	}
	if s == nil {
		return rejected(session.ReasonSessionNotFound), nil
	}
	if !s.IsActive() {
		return rejected(session.ReasonSessionClosed), nil
	}

	if clientID != "" {
		seen, err := m.repo.HasDeviceSubmitted(ctx, id, clientID)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("failed to check device: %w", err)
		}
		if seen {
			return rejected(session.ReasonDuplicateDeviceSubmission), nil
		}
	}

	if _, err := s.RecordAttendance(tok, input, m.now()); err != nil {
		if reason := session.ReasonFor(err); reason != session.ReasonNone {
			return rejected(reason), nil
		}
		return SubmitResult{}, err
	}

	if err := m.repo.Save(ctx, s); err != nil {
		m.logger.Errorw("failed to persist attendance", "session_id", id, "error", err)
		return SubmitResult{}, fmt.Errorf("failed to record attendance: %w", err)
	}

	if clientID != "" {
		// The record is already stored; a failure here is still reported.
		if err := m.repo.MarkDeviceSubmitted(ctx, id, clientID); err != nil {
			m.logger.Errorw("failed to mark device", "session_id", id, "error", err)
			return SubmitResult{}, fmt.Errorf("failed to mark device: %w", err)
		}
	}

	return SubmitResult{OK: true, Session: s}, nil
}

// Delete removes the session and its device set.
func (m *SessionManager) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := m.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	if deleted {
		m.logger.Infow("session deleted", "session_id", id)
	}
	return deleted, nil
}

func rejected(reason session.Reason) SubmitResult {
	return SubmitResult{Reason: reason}
}
