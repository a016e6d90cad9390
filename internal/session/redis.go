package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jutorials/backend/internal/models"
)

// Redis key prefix for withdrawal sessions
const withdrawalSessionPrefix = "withdrawal_session:"

// RedisStore implements Store on Redis with a TTL per session. Abandoned
// flows simply expire; the workflow never sees them again.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(userID int64) string {
	return fmt.Sprintf("%s%d", withdrawalSessionPrefix, userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (*models.WithdrawalSession, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting withdrawal session: %w", err)
	}

	var session models.WithdrawalSession
	if err := json.Unmarshal(data, &session); err != nil {
		// A corrupt session is unrecoverable; drop it so the user can
		// start over instead of being stuck.
		_ = s.client.Del(ctx, s.key(userID)).Err()
		return nil, nil
	}
	return &session, nil
}

func (s *RedisStore) Put(ctx context.Context, session *models.WithdrawalSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("error marshaling withdrawal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(session.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("error storing withdrawal session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("error deleting withdrawal session: %w", err)
	}
	return nil
}
