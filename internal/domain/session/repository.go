package session

import "context"

// Repository persists sessions and their submitted-device sets. Every write
// resets the store-wide expiration window.
type Repository interface {
	Save(ctx context.Context, s *Session) error
	// GetByID returns nil, nil when the session is absent.
	GetByID(ctx context.Context, id string) (*Session, error)
	// Delete removes the session and its device set and reports whether the
	// session entry existed.
	Delete(ctx context.Context, id string) (bool, error)

	HasDeviceSubmitted(ctx context.Context, id, clientID string) (bool, error)
	MarkDeviceSubmitted(ctx context.Context, id, clientID string) error
}
