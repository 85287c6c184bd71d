package cache

import (
	"context"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/infrastructure/auth"
	"github.com/bidhouse/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the short-lived state the API keeps outside PostgreSQL
type Stores struct {
	OTP       identity.OTPStore
	Blacklist auth.TokenBlacklist
	client    *redis.Client
}

// StoreOption configures NewStores
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithLogger sets the logger used to report the chosen backend
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores instead of failing startup. Default is true.
func WithInMemoryFallback(allow bool) StoreOption {
	return func(o *storeOptions) {
		o.allowInMemoryFallback = allow
	}
}

// NewStores builds Redis-backed stores when Redis is configured and in-memory
// ones otherwise.
func NewStores(ctx context.Context, cfg config.RedisConfig, opts ...StoreOption) (*Stores, error) {
	o := storeOptions{logger: zap.NewNop(), allowInMemoryFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled() {
		o.logger.Warn("Redis not configured, using in-memory OTP store and token blacklist")
		return NewInMemoryStores(), nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !o.allowInMemoryFallback {
			return nil, err
		}
		o.logger.Warn("Redis unavailable, falling back to in-memory stores", zap.Error(err))
		return NewInMemoryStores(), nil
	}

	o.logger.Info("Using Redis stores", zap.String("addr", cfg.Addr()))
	return &Stores{
		OTP:       NewRedisOTPStoreWithClient(client, ""),
		Blacklist: auth.NewRedisTokenBlacklistWithClient(client),
		client:    client,
	}, nil
}

// NewInMemoryStores returns process-local stores
func NewInMemoryStores() *Stores {
	return &Stores{
		OTP:       NewInMemoryOTPStore(),
		Blacklist: auth.NewInMemoryTokenBlacklist(),
	}
}

// Backend names the active backend for health output
func (s *Stores) Backend() string {
	if s.client != nil {
		return "redis"
	}
	return "memory"
}

// Ping checks the Redis connection. In-memory stores are always healthy.
func (s *Stores) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

func (s *Stores) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
