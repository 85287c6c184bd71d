package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/bidhouse/backend/internal/domain/shared"
)

// OTPPurpose scopes a one-time password to a single flow
type OTPPurpose string

const (
	OTPPurposeRegistration  OTPPurpose = "registration"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

// OTPLength is the number of digits in a one-time password
const OTPLength = 6

var otpUpperBound = big.NewInt(1_000_000)

// OTP errors
var (
	ErrOTPInvalid          = shared.NewDomainError("OTP_INVALID", "Verification code is incorrect")
	ErrOTPExpired          = shared.NewDomainError("OTP_EXPIRED", "Verification code has expired or was never issued")
	ErrOTPAttemptsExceeded = shared.NewDomainError("OTP_ATTEMPTS_EXCEEDED", "Too many incorrect attempts, request a new code")
	ErrOTPThrottled        = shared.NewDomainError("OTP_THROTTLED", "A code was sent recently, please wait before requesting another")
)

// IsValid reports whether p is a known purpose
func (p OTPPurpose) IsValid() bool {
	return p == OTPPurposeRegistration || p == OTPPurposePasswordReset
}

// GenerateOTPCode returns a uniformly random zero-padded six-digit code
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

// HashOTPCode binds a code to the email and purpose it was issued for
func HashOTPCode(email string, purpose OTPPurpose, code string) string {
	sum := sha256.Sum256([]byte(email + "|" + string(purpose) + "|" + code))
	return hex.EncodeToString(sum[:])
}

// OTPRecord is the stored state of an issued code. Only the hash is kept.
type OTPRecord struct {
	Email       string     `json:"email"`
	Purpose     OTPPurpose `json:"purpose"`
	CodeHash    string     `json:"code_hash"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
}

// NewOTPRecord creates a record for a freshly generated code
func NewOTPRecord(email string, purpose OTPPurpose, code string, ttl time.Duration, maxAttempts int, now time.Time) *OTPRecord {
	return &OTPRecord{
		Email:       email,
		Purpose:     purpose,
		CodeHash:    HashOTPCode(email, purpose, code),
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		MaxAttempts: maxAttempts,
	}
}

// Verify checks a submitted code. A wrong code consumes one attempt.
func (r *OTPRecord) Verify(code string, now time.Time) error {
	if !now.Before(r.ExpiresAt) {
		return ErrOTPExpired
	}
	if r.MaxAttempts > 0 && r.Attempts >= r.MaxAttempts {
		return ErrOTPAttemptsExceeded
	}
	if len(code) != OTPLength {
		r.Attempts++
		return ErrOTPInvalid
	}
	want := []byte(r.CodeHash)
	got := []byte(HashOTPCode(r.Email, r.Purpose, code))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		r.Attempts++
		return ErrOTPInvalid
	}
	return nil
}

// RemainingAttempts returns how many wrong codes may still be submitted
func (r *OTPRecord) RemainingAttempts() int {
	if r.MaxAttempts <= 0 {
		return -1
	}
	left := r.MaxAttempts - r.Attempts
	if left < 0 {
		return 0
	}
	return left
}

// TTL returns the time left before the record expires
func (r *OTPRecord) TTL(now time.Time) time.Duration {
	d := r.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// OTPStore keeps issued codes until they are used or expire.
// Get and Attempt return ErrOTPExpired when no live record exists.
//
// Attempt runs check against the live record with no other Attempt or Save
// on the same key in between. A nil result consumes the record, an
// ErrOTPInvalid result persists the mutated record, and any other error
// leaves it unchanged. The result of check is returned.
type OTPStore interface {
	Save(ctx context.Context, record *OTPRecord) error
	Get(ctx context.Context, email string, purpose OTPPurpose) (*OTPRecord, error)
	Attempt(ctx context.Context, email string, purpose OTPPurpose, check func(*OTPRecord) error) error
	Delete(ctx context.Context, email string, purpose OTPPurpose) error
}

// OTPNotifier delivers a code to the user
type OTPNotifier interface {
	SendOTP(ctx context.Context, email string, purpose OTPPurpose, code string, expiresAt time.Time) error
}
