package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("token not found or expired")

// Store keeps one-time recovery codes keyed by email. Entries expire on
// their own and are removed on first successful use.
type Store interface {
	Save(ctx context.Context, email string, code string, ttl time.Duration) error
	Redeem(ctx context.Context, email string, code string) error
}

// RedisStore relies on the cache's native TTL for expiry, so there is no
// in-process sweeping and nothing shared between requests but the client.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(email string) string {
	return "recovery:" + email
}

func (s *RedisStore) Save(ctx context.Context, email string, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("saving recovery code: %w", err)
	}
	return nil
}

// Redeem checks the presented code against the stored one and consumes it on
// a match. A wrong guess leaves the stored code in place until it expires.
func (s *RedisStore) Redeem(ctx context.Context, email string, code string) error {
	stored, err := s.client.Get(ctx, key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("loading recovery code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrNotFound
	}

	if err := s.client.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("consuming recovery code: %w", err)
	}

	return nil
}
