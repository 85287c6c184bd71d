package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultOTPKeyPrefix = "bidhouse:otp:"
	otpAttemptRetries   = 10
)

// RedisOTPStore keeps one OTP record per (email, purpose) with the record's
// own expiry as the key TTL, so Redis evicts stale codes.
type RedisOTPStore struct {
	client    redis.UniversalClient
	keyPrefix string
	nowFunc   func() time.Time
}

// NewRedisOTPStoreWithClient creates an OTP store on a shared client
func NewRedisOTPStoreWithClient(client redis.UniversalClient, keyPrefix string) *RedisOTPStore {
	if keyPrefix == "" {
		keyPrefix = defaultOTPKeyPrefix
	}
	return &RedisOTPStore{client: client, keyPrefix: keyPrefix, nowFunc: time.Now}
}

func (s *RedisOTPStore) key(email string, purpose identity.OTPPurpose) string {
	return s.keyPrefix + string(purpose) + ":" + email
}

func (s *RedisOTPStore) Save(ctx context.Context, record *identity.OTPRecord) error {
	ttl := record.TTL(s.nowFunc())
	if ttl <= 0 {
		return identity.ErrOTPExpired
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode otp record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.Email, record.Purpose), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Get(ctx context.Context, email string, purpose identity.OTPPurpose) (*identity.OTPRecord, error) {
	return decodeOTP(s.client.Get(ctx, s.key(email, purpose)).Bytes())
}

func decodeOTP(raw []byte, err error) (*identity.OTPRecord, error) {
	if errors.Is(err, redis.Nil) {
		return nil, identity.ErrOTPExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}
	var record identity.OTPRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode otp record: %w", err)
	}
	return &record, nil
}

// Attempt runs check inside a WATCH transaction on the record key and
// retries when another writer commits first.
func (s *RedisOTPStore) Attempt(ctx context.Context, email string, purpose identity.OTPPurpose, check func(*identity.OTPRecord) error) error {
	key := s.key(email, purpose)
	for i := 0; i < otpAttemptRetries; i++ {
		var result error
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			record, err := decodeOTP(tx.Get(ctx, key).Bytes())
			if err != nil {
				return err
			}
			result = check(record)
			switch {
			case result == nil:
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
			case errors.Is(result, identity.ErrOTPInvalid):
				payload, merr := json.Marshal(record)
				if merr != nil {
					return fmt.Errorf("failed to encode otp record: %w", merr)
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, payload, redis.KeepTTL)
					return nil
				})
			}
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return err
		}
		return result
	}
	return fmt.Errorf("otp record for %s kept changing: %w", purpose, shared.ErrConcurrencyConflict)
}

func (s *RedisOTPStore) Delete(ctx context.Context, email string, purpose identity.OTPPurpose) error {
	if err := s.client.Del(ctx, s.key(email, purpose)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

var _ identity.OTPStore = (*RedisOTPStore)(nil)

// InMemoryOTPStore is the single-instance OTP store
type InMemoryOTPStore struct {
	mu      sync.Mutex
	records map[string]identity.OTPRecord
	nowFunc func() time.Time
}

func NewInMemoryOTPStore() *InMemoryOTPStore {
	return &InMemoryOTPStore{
		records: make(map[string]identity.OTPRecord),
		nowFunc: time.Now,
	}
}

func memKey(email string, purpose identity.OTPPurpose) string {
	return string(purpose) + ":" + email
}

func (s *InMemoryOTPStore) Save(_ context.Context, record *identity.OTPRecord) error {
	if record.TTL(s.nowFunc()) <= 0 {
		return identity.ErrOTPExpired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memKey(record.Email, record.Purpose)] = *record
	return nil
}

func (s *InMemoryOTPStore) Get(_ context.Context, email string, purpose identity.OTPPurpose) (*identity.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey(email, purpose)
	record, ok := s.records[k]
	if !ok {
		return nil, identity.ErrOTPExpired
	}
	if record.TTL(s.nowFunc()) <= 0 {
		delete(s.records, k)
		return nil, identity.ErrOTPExpired
	}
	return &record, nil
}

// Attempt holds the store lock while check runs
func (s *InMemoryOTPStore) Attempt(_ context.Context, email string, purpose identity.OTPPurpose, check func(*identity.OTPRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey(email, purpose)
	record, ok := s.records[k]
	if !ok || record.TTL(s.nowFunc()) <= 0 {
		delete(s.records, k)
		return identity.ErrOTPExpired
	}
	err := check(&record)
	switch {
	case err == nil:
		delete(s.records, k)
	case errors.Is(err, identity.ErrOTPInvalid):
		s.records[k] = record
	}
	return err
}

func (s *InMemoryOTPStore) Delete(_ context.Context, email string, purpose identity.OTPPurpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, memKey(email, purpose))
	return nil
}

var _ identity.OTPStore = (*InMemoryOTPStore)(nil)
