package session

import (
	"crypto/subtle"
	"math"
	"slices"
	"time"
)

const millisPerMinute = int64(time.Minute / time.Millisecond)

// Session is one roll-call event. A session is Active from creation until it
// is closed manually or by reaching its duration; tokens is always empty when
// the session is not active.
type Session struct {
	id              string
	isActive        bool
	createdAt       time.Time
	closedAt        *time.Time
	name            *string
	durationMinutes *int
	attendance      []AttendanceRecord
	tokens          []string
	ownerToken      string
}

// NewSession creates an active session. Timestamps are kept at millisecond
// precision to match the stored form.
func NewSession(id, ownerToken string, name *string, durationMinutes *int, now time.Time) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidSessionID
	}
	if ownerToken == "" {
		return nil, ErrInvalidOwnerToken
	}
	if durationMinutes != nil && *durationMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	return &Session{
		id:              id,
		isActive:        true,
		createdAt:       toMillis(now),
		name:            cloneString(name),
		durationMinutes: cloneInt(durationMinutes),
		attendance:      []AttendanceRecord{},
		tokens:          []string{},
		ownerToken:      ownerToken,
	}, nil
}

// ReconstructSession rebuilds a session from storage. An inactive session
// loaded with leftover tokens has them dropped.
func ReconstructSession(
	id string,
	isActive bool,
	createdAt time.Time,
	closedAt *time.Time,
	name *string,
	durationMinutes *int,
	attendance []AttendanceRecord,
	tokens []string,
	ownerToken string,
) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidSessionID
	}
	if ownerToken == "" {
		return nil, ErrInvalidOwnerToken
	}

	s := &Session{
		id:              id,
		isActive:        isActive,
		createdAt:       createdAt,
		closedAt:        closedAt,
		name:            name,
		durationMinutes: durationMinutes,
		attendance:      slices.Clone(attendance),
		tokens:          slices.Clone(tokens),
		ownerToken:      ownerToken,
	}
	if s.attendance == nil {
		s.attendance = []AttendanceRecord{}
	}
	if s.tokens == nil || !s.isActive {
		s.tokens = []string{}
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) IsActive() bool {
	return s.isActive
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) ClosedAt() *time.Time {
	if s.closedAt == nil {
		return nil
	}
	t := *s.closedAt
	return &t
}

func (s *Session) Name() *string {
	return cloneString(s.name)
}

// NameOr returns the session name, or fallback when none was given.
func (s *Session) NameOr(fallback string) string {
	if s.name == nil {
		return fallback
	}
	return *s.name
}

func (s *Session) DurationMinutes() *int {
	return cloneInt(s.durationMinutes)
}

// Attendance returns the records in submission order.
func (s *Session) Attendance() []AttendanceRecord {
	return slices.Clone(s.attendance)
}

func (s *Session) Tokens() []string {
	return slices.Clone(s.tokens)
}

func (s *Session) TokensCount() int {
	return len(s.tokens)
}

func (s *Session) OwnerToken() string {
	return s.ownerToken
}

// EndsAt reports when the session's duration runs out.
func (s *Session) EndsAt() (time.Time, bool) {
	endMs, ok := s.endsAtMillis()
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(endMs), true
}

// endsAtMillis computes createdAt + durationMinutes*60000 in epoch ms,
// saturating at math.MaxInt64 for durations too large to represent.
func (s *Session) endsAtMillis() (int64, bool) {
	if s.durationMinutes == nil {
		return 0, false
	}
	createdMs := s.createdAt.UnixMilli()
	minutes := int64(*s.durationMinutes)
	if minutes <= 0 {
		return createdMs, true
	}
	if minutes > (math.MaxInt64-createdMs)/millisPerMinute {
		return math.MaxInt64, true
	}
	return createdMs + minutes*millisPerMinute, true
}

// IsExpired reports whether a duration is set and now is at or past its end.
// A duration of zero is expired immediately.
func (s *Session) IsExpired(now time.Time) bool {
	endMs, ok := s.endsAtMillis()
	return ok && now.UnixMilli() >= endMs
}

// AutoCloseIfExpired closes an active session whose duration has run out and
// reports whether it did. Expiry is only ever applied when a session is read.
func (s *Session) AutoCloseIfExpired(now time.Time) bool {
	if !s.isActive || !s.IsExpired(now) {
		return false
	}
	s.Close(now)
	return true
}

// Close deactivates the session and discards all outstanding tokens.
// closedAt is overwritten on every call, including on a closed session.
func (s *Session) Close(now time.Time) {
	closedAt := toMillis(now)
	s.isActive = false
	s.closedAt = &closedAt
	s.tokens = []string{}
}

// AddToken registers a freshly minted attendance token.
func (s *Session) AddToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if !s.isActive {
		return ErrSessionClosed
	}
	s.tokens = append(s.tokens, token)
	return nil
}

func (s *Session) HasToken(token string) bool {
	return token != "" && slices.Contains(s.tokens, token)
}

func (s *Session) HasAttendee(userID string) bool {
	return slices.ContainsFunc(s.attendance, func(r AttendanceRecord) bool {
		return r.UserID == userID
	})
}

// RecordAttendance consumes token and appends a record for input. Checks run
// in a fixed order: closed, token, duplicate user. Device deduplication is
// the caller's responsibility and must happen before this call.
func (s *Session) RecordAttendance(token string, input AttendanceInput, now time.Time) (AttendanceRecord, error) {
	if !s.isActive {
		return AttendanceRecord{}, ErrSessionClosed
	}

	idx := slices.Index(s.tokens, token)
	if token == "" || idx < 0 {
		return AttendanceRecord{}, ErrTokenInvalid
	}

	if s.HasAttendee(input.UserID) {
		return AttendanceRecord{}, ErrDuplicateAttendance
	}

	s.tokens = slices.Delete(s.tokens, idx, idx+1)
	record := newAttendanceRecord(input, toMillis(now))
	s.attendance = append(s.attendance, record)
	return record, nil
}

// VerifyOwner compares supplied against the owner secret in constant time.
func (s *Session) VerifyOwner(supplied string) bool {
	if supplied == "" || s.ownerToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.ownerToken)) == 1
}

// Snapshot returns a deep copy that shares no mutable state with s.
func (s *Session) Snapshot() *Session {
	return &Session{
		id:              s.id,
		isActive:        s.isActive,
		createdAt:       s.createdAt,
		closedAt:        s.ClosedAt(),
		name:            cloneString(s.name),
		durationMinutes: cloneInt(s.durationMinutes),
		attendance:      slices.Clone(s.attendance),
		tokens:          slices.Clone(s.tokens),
		ownerToken:      s.ownerToken,
	}
}

func toMillis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
