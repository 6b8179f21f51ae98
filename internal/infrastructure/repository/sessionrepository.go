package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/quickrollcall/rollcall/internal/domain/session"
	"github.com/quickrollcall/rollcall/internal/infrastructure/cache"
	"github.com/quickrollcall/rollcall/internal/infrastructure/persistence/mappers"
	"github.com/quickrollcall/rollcall/internal/infrastructure/persistence/models"
)

const (
	sessionKeyPrefix   = "session:"
	submittedKeyPrefix = "submitted:"
)

// SessionRepositoryImpl keeps one JSON document per session and one set of
// submitted client ids per session, both expiring ttl after the last write.
type SessionRepositoryImpl struct {
	store  *cache.Store
	mapper mappers.SessionMapper
	ttl    time.Duration
}

func NewSessionRepository(store *cache.Store, ttl time.Duration) session.Repository {
	return &SessionRepositoryImpl{
		store:  store,
		mapper: mappers.NewSessionMapper(),
		ttl:    ttl,
	}
}

func SessionKey(id string) string {
	return sessionKeyPrefix + id
}

func SubmittedKey(id string) string {
	return submittedKeyPrefix + id
}

func (r *SessionRepositoryImpl) Save(ctx context.Context, s *session.Session) error {
	if err := r.store.Set(ctx, SessionKey(s.ID()), r.mapper.ToModel(s), r.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepositoryImpl) GetByID(ctx context.Context, id string) (*session.Session, error) {
	var model models.SessionModel
	found, err := r.store.Get(ctx, SessionKey(id), &model)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !found {
		return nil, nil
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		return nil, fmt.Errorf("failed to map session: %w", err)
	}
	return entity, nil
}

func (r *SessionRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.store.Del(ctx, SessionKey(id))
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	if _, err := r.store.Del(ctx, SubmittedKey(id)); err != nil {
		return deleted > 0, fmt.Errorf("failed to delete submitted devices: %w", err)
	}
	return deleted > 0, nil
}

func (r *SessionRepositoryImpl) HasDeviceSubmitted(ctx context.Context, id, clientID string) (bool, error) {
	ok, err := r.store.SIsMember(ctx, SubmittedKey(id), clientID)
	if err != nil {
		return false, fmt.Errorf("failed to check submitted device: %w", err)
	}
	return ok, nil
}

func (r *SessionRepositoryImpl) MarkDeviceSubmitted(ctx context.Context, id, clientID string) error {
	key := SubmittedKey(id)
	if _, err := r.store.SAdd(ctx, key, clientID); err != nil {
		return fmt.Errorf("failed to record submitted device: %w", err)
	}
	if _, err := r.store.Expire(ctx, key, r.ttl); err != nil {
		return fmt.Errorf("failed to expire submitted devices: %w", err)
	}
	return nil
}
