package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/bidhouse/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"   // Registered, email not verified yet
	UserStatusActive    UserStatus = "active"    // Email verified
	UserStatusSuspended UserStatus = "suspended" // Blocked by an administrator
)

const bcryptCost = 12

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	hasLetter     = regexp.MustCompile(`[a-zA-Z]`)
	hasDigit      = regexp.MustCompile(`[0-9]`)
)

// Errors raised by the user aggregate
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email, username or password")
	ErrUserSuspended      = shared.NewDomainError("USER_SUSPENDED", "Account has been suspended")
	ErrUserLocked         = shared.NewDomainError("USER_LOCKED", "Account is temporarily locked")
	ErrAlreadyVerified    = shared.NewDomainError("ALREADY_VERIFIED", "Email address is already verified")
	ErrEmailNotVerified   = shared.NewDomainError("EMAIL_NOT_VERIFIED", "Email address has not been verified")
)

// User is the base account every buyer, seller and admin profile hangs off
type User struct {
	shared.BaseAggregateRoot
	Email             string
	Username          string
	PasswordHash      string
	Role              Role
	Status            UserStatus
	EmailVerifiedAt   *time.Time
	FailedAttempts    int
	LockedUntil       *time.Time
	LastLoginAt       *time.Time
	LastLoginIP       string
	PasswordChangedAt *time.Time
	SuspendedReason   string
}

// NewUser registers a new, unverified user
func NewUser(email, username, password string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be one of buyer, seller, admin")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		Username:          username,
		PasswordHash:      hash,
		Role:              role,
		Status:            UserStatusPending,
		PasswordChangedAt: &now,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))

	return user, nil
}

// NormalizeEmail trims and case-folds an email address
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// VerifyEmail marks the email as confirmed and activates a pending account
func (u *User) VerifyEmail(now time.Time) error {
	if u.EmailVerifiedAt != nil {
		return ErrAlreadyVerified
	}
	u.EmailVerifiedAt = &now
	if u.Status == UserStatusPending {
		u.Status = UserStatusActive
	}
	u.IncrementVersion()
	u.AddDomainEvent(NewUserEmailVerifiedEvent(u))
	return nil
}

// IsEmailVerified reports whether the registration OTP was confirmed
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// SetPassword replaces the password and clears any lockout
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	u.PasswordHash = hash
	u.PasswordChangedAt = &now
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.IncrementVersion()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

// ChangePassword requires the current password before setting a new one
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if oldPassword == newPassword {
		return shared.NewDomainError("INVALID_PASSWORD", "New password must differ from the current one")
	}
	return u.SetPassword(newPassword)
}

// VerifyPassword checks a plain password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Suspend blocks the account from logging in
func (u *User) Suspend(reason string) error {
	if u.Status == UserStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "User is already suspended")
	}
	old := u.Status
	u.Status = UserStatusSuspended
	u.SuspendedReason = strings.TrimSpace(reason)
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u, old, UserStatusSuspended))
	return nil
}

// Reactivate lifts a suspension. Accounts that never verified go back to pending.
func (u *User) Reactivate() error {
	if u.Status != UserStatusSuspended {
		return shared.NewDomainError("NOT_SUSPENDED", "User is not suspended")
	}
	next := UserStatusPending
	if u.IsEmailVerified() {
		next = UserStatusActive
	}
	u.Status = next
	u.SuspendedReason = ""
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u, UserStatusSuspended, next))
	return nil
}

// RecordLoginSuccess records a successful login
func (u *User) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.IncrementVersion()
}

// RecordLoginFailure counts a failed login and locks the account once
// maxAttempts is reached. Returns true when the account became locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.IncrementVersion()

	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

// IsLocked returns true while a lockout is in effect
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

func (u *User) IsSuspended() bool {
	return u.Status == UserStatusSuspended
}

// CheckCanLogin returns the reason the user may not log in, if any
func (u *User) CheckCanLogin() error {
	if u.IsSuspended() {
		return ErrUserSuspended
	}
	if u.IsLocked() {
		return ErrUserLocked
	}
	return nil
}

// Permissions returns the permission codes granted by the user's role
func (u *User) Permissions() []string {
	return u.Role.Permissions()
}

func validateUsername(username string) error {
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username must start with a letter and contain only letters, numbers and underscores")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	if !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
