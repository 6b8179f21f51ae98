package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quickrollcall/rollcall/internal/shared/logger"
)

// Store is a small JSON key-value facade over Redis with the set and
// sorted-set primitives the session and rate-limit layers need.
type Store struct {
	clients ClientProvider
	logger  logger.Interface
}

func NewStore(clients ClientProvider, log logger.Interface) *Store {
	return &Store{
		clients: clients,
		logger:  log,
	}
}

// Set stores value as JSON. ttl <= 0 stores without expiry.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = 0
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Get decodes the JSON stored at key into dest. A missing key and a value
// that is not valid JSON both report found=false; the latter is logged.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return false, err
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Errorw("failed to parse stored JSON", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Del removes keys and returns how many existed.
func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	client, err := s.clients.Client(ctx)
	if err != nil {
		return 0, err
	}
	n, err := client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to delete keys: %w", err)
	}
	return n, nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return false, err
	}
	n, err := client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *Store) SIsMember(ctx context.Context, key, member string) (bool, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return false, err
	}
	ok, err := client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check membership in %s: %w", key, err)
	}
	return ok, nil
}

// SAdd returns the number of members that were not already present.
func (s *Store) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return 0, err
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	n, err := client.SAdd(ctx, key, args...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add to %s: %w", key, err)
	}
	return n, nil
}

// Expire sets a TTL on key. A non-positive ttl is a no-op that returns false.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	client, err := s.clients.Client(ctx)
	if err != nil {
		return false, err
	}
	ok, err := client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to expire %s: %w", key, err)
	}
	return ok, nil
}

// ZRemRangeByScore drops members scored within [min, max].
func (s *Store) ZRemRangeByScore(ctx context.Context, key string, min, max int64) error {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return err
	}
	err = client.ZRemRangeByScore(ctx, key, strconv.FormatInt(min, 10), strconv.FormatInt(max, 10)).Err()
	if err != nil {
		return fmt.Errorf("failed to trim %s: %w", key, err)
	}
	return nil
}

func (s *Store) ZAdd(ctx context.Context, key string, score int64, member string) error {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return err
	}
	if err := client.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: member}).Err(); err != nil {
		return fmt.Errorf("failed to add to %s: %w", key, err)
	}
	return nil
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return 0, err
	}
	n, err := client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", key, err)
	}
	return n, nil
}

// ZOldestScore returns the lowest score in key, or ok=false when it is empty.
func (s *Store) ZOldestScore(ctx context.Context, key string) (score int64, ok bool, err error) {
	client, err := s.clients.Client(ctx)
	if err != nil {
		return 0, false, err
	}
	entries, err := client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read oldest entry of %s: %w", key, err)
	}
	if len(entries) == 0 {
		return 0, false, nil
	}
	return int64(entries[0].Score), true, nil
}
