package session

import "errors"

// Reason is the machine-readable outcome of a rejected attendance operation.
type Reason string

const (
	ReasonNone                      Reason = ""
	ReasonSessionNotFound           Reason = "SESSION_NOT_FOUND"
	ReasonSessionClosed             Reason = "SESSION_CLOSED"
	ReasonTokenInvalid              Reason = "TOKEN_INVALID"
	ReasonDuplicateAttendance       Reason = "DUPLICATE_ATTENDANCE"
	ReasonDuplicateDeviceSubmission Reason = "DUPLICATE_DEVICE_SUBMISSION"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionClosed       = errors.New("session is closed")
	ErrTokenInvalid        = errors.New("invalid or already used token")
	ErrDuplicateAttendance = errors.New("this user has already submitted attendance")
	ErrDuplicateDevice     = errors.New("this device already submitted attendance")

	ErrInvalidSessionID  = errors.New("session id cannot be empty")
	ErrInvalidOwnerToken = errors.New("owner token cannot be empty")
	ErrInvalidDuration   = errors.New("duration minutes cannot be negative")
	ErrEmptyToken        = errors.New("attendance token cannot be empty")
)

var reasonErrors = map[Reason]error{
	ReasonSessionNotFound:           ErrSessionNotFound,
	ReasonSessionClosed:             ErrSessionClosed,
	ReasonTokenInvalid:              ErrTokenInvalid,
	ReasonDuplicateAttendance:       ErrDuplicateAttendance,
	ReasonDuplicateDeviceSubmission: ErrDuplicateDevice,
}

// Err returns the sentinel error for r, or nil for ReasonNone.
func (r Reason) Err() error {
	return reasonErrors[r]
}

// ReasonFor maps a sentinel (possibly wrapped) back to its Reason.
func ReasonFor(err error) Reason {
	for reason, sentinel := range reasonErrors {
		if errors.Is(err, sentinel) {
			return reason
		}
	}
	return ReasonNone
}
