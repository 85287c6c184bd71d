package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before they expire. A single token is
// revoked by jti on logout or refresh rotation; all of a user's sessions are
// cut on password change, reset and suspension.
type TokenBlacklist interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeUserSessions rejects every token issued to userID up to now.
	// ttl should cover the longest token lifetime.
	RevokeUserSessions(ctx context.Context, userID string, ttl time.Duration) error
	UserSessionRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)

// RedisTokenBlacklist keeps revocations as expiring keys so they vanish
// together with the tokens they reject
type RedisTokenBlacklist struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisTokenBlacklistWithClient(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client, prefix: "bidhouse:revoked:"}
}

func (b *RedisTokenBlacklist) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired, nothing to reject
		return nil
	}
	if err := b.client.Set(ctx, b.prefix+"jti:"+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+"jti:"+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n == 1, nil
}

func (b *RedisTokenBlacklist) RevokeUserSessions(ctx context.Context, userID string, ttl time.Duration) error {
	err := b.client.Set(ctx, b.prefix+"user:"+userID, time.Now().UnixMilli(), ttl).Err()
	if err != nil {
		return fmt.Errorf("revoke sessions of %s: %w", userID, err)
	}
	return nil
}

func (b *RedisTokenBlacklist) UserSessionRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.prefix+"user:"+userID).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check revoked sessions: %w", err)
	}
	cut, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("bad session cut %q: %w", raw, err)
	}
	return issuedAt.UnixMilli() <= cut, nil
}

// InMemoryTokenBlacklist is the single-instance fallback used without Redis
// and in tests
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	jtis    map[string]time.Time // jti -> when the entry can be dropped
	cuts    map[string]int64     // userID -> unix millisecond of the cut
	nowFunc func() time.Time
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:    map[string]time.Time{},
		cuts:    map[string]int64{},
		nowFunc: time.Now,
	}
}

func (b *InMemoryTokenBlacklist) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	b.jtis[jti] = b.nowFunc().Add(ttl)
	b.mu.Unlock()
	return nil
}

func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.jtis[jti]
	if ok && b.nowFunc().After(until) {
		delete(b.jtis, jti)
		ok = false
	}
	return ok, nil
}

func (b *InMemoryTokenBlacklist) RevokeUserSessions(_ context.Context, userID string, _ time.Duration) error {
	b.mu.Lock()
	b.cuts[userID] = b.nowFunc().UnixMilli()
	b.mu.Unlock()
	return nil
}

// UserSessionRevoked compares milliseconds, the precision iat is issued with
func (b *InMemoryTokenBlacklist) UserSessionRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cut, ok := b.cuts[userID]
	return ok && issuedAt.UnixMilli() <= cut, nil
}
