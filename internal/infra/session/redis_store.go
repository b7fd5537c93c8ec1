package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"library-api/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errs.New("refresh session not found")
	ErrTokenMismatch   = errs.New("refresh token mismatch")
)

// RedisStore keeps one refresh session per user. Issuing a new refresh
// token invalidates the previous one, and logout drops the key.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func refreshKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:refresh:%s", userID)
}

// Only the digest is stored; a Redis dump never exposes usable tokens.
func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *RedisStore) Save(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.rdb.Set(ctx, refreshKey(userID), digest(token), s.ttl).Err(); err != nil {
		return errs.Wrap(err, "failed to save refresh session")
	}
	return nil
}

func (s *RedisStore) Validate(ctx context.Context, userID uuid.UUID, token string) error {
	stored, err := s.rdb.Get(ctx, refreshKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		return errs.Wrap(err, "failed to load refresh session")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(digest(token))) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

func (s *RedisStore) Revoke(ctx context.Context, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, refreshKey(userID)).Err(); err != nil {
		return errs.Wrap(err, "failed to revoke refresh session")
	}
	return nil
}
