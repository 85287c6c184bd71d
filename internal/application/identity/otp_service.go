package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bidhouse/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// OTPServiceConfig controls code lifetime and resend throttling
type OTPServiceConfig struct {
	TTL            time.Duration
	MaxAttempts    int
	ResendInterval time.Duration
}

// DefaultOTPServiceConfig returns a 10 minute code with 5 attempts
func DefaultOTPServiceConfig() OTPServiceConfig {
	return OTPServiceConfig{
		TTL:            10 * time.Minute,
		MaxAttempts:    5,
		ResendInterval: time.Minute,
	}
}

// Throttle decides whether another code may be sent for a key
type Throttle interface {
	Allow(key string) bool
}

// OTPService issues and checks one-time codes for registration and
// password reset.
type OTPService struct {
	store    identity.OTPStore
	notifier identity.OTPNotifier
	throttle Throttle
	config   OTPServiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewOTPService creates the service. throttle may be nil.
func NewOTPService(
	store identity.OTPStore,
	notifier identity.OTPNotifier,
	throttle Throttle,
	config OTPServiceConfig,
	logger *zap.Logger,
) *OTPService {
	return &OTPService{
		store:    store,
		notifier: notifier,
		throttle: throttle,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue generates a fresh code, replaces any previous one and sends it.
// A second request inside ResendInterval fails with ErrOTPThrottled.
func (s *OTPService) Issue(ctx context.Context, email string, purpose identity.OTPPurpose) (*OTPIssued, error) {
	email = identity.NormalizeEmail(email)
	now := s.now()

	if err := s.checkResend(ctx, email, purpose, now); err != nil {
		return nil, err
	}

	code, err := identity.GenerateOTPCode()
	if err != nil {
		return nil, err
	}
	record := identity.NewOTPRecord(email, purpose, code, s.config.TTL, s.config.MaxAttempts, now)
	if err := s.store.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, email, purpose, code, record.ExpiresAt); err != nil {
		// An undeliverable code is useless; drop it so the user can retry at once
		_ = s.store.Delete(ctx, email, purpose)
		return nil, fmt.Errorf("failed to deliver otp: %w", err)
	}

	s.logger.Info("OTP issued",
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", record.ExpiresAt))
	return &OTPIssued{ExpiresAt: record.ExpiresAt}, nil
}

func (s *OTPService) checkResend(ctx context.Context, email string, purpose identity.OTPPurpose, now time.Time) error {
	if s.config.ResendInterval > 0 {
		existing, err := s.store.Get(ctx, email, purpose)
		switch {
		case err == nil:
			if now.Before(existing.IssuedAt.Add(s.config.ResendInterval)) {
				return identity.ErrOTPThrottled
			}
		case !errors.Is(err, identity.ErrOTPExpired):
			return err
		}
	}
	if s.throttle != nil && !s.throttle.Allow(string(purpose)+":"+email) {
		return identity.ErrOTPThrottled
	}
	return nil
}

// Verify checks a submitted code. The record is consumed on success;
// on a wrong code the incremented attempt count is persisted before the
// result is returned.
func (s *OTPService) Verify(ctx context.Context, email string, purpose identity.OTPPurpose, code string) error {
	email = identity.NormalizeEmail(email)

	remaining := 0
	err := s.store.Attempt(ctx, email, purpose, func(record *identity.OTPRecord) error {
		verr := record.Verify(code, s.now())
		remaining = record.RemainingAttempts()
		return verr
	})
	if errors.Is(err, identity.ErrOTPInvalid) {
		s.logger.Warn("Incorrect OTP submitted",
			zap.String("purpose", string(purpose)),
			zap.Int("remaining_attempts", remaining))
	}
	return err
}
