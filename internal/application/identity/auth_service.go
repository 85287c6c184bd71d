package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// loginFailureRetries bounds reloads after a conflicting write. Every
// conflict is another request's committed write, so the bound only needs to
// cover the lockout threshold.
const loginFailureRetries = 10

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles registration, verification and session operations
type AuthService struct {
	userRepo       identity.UserRepository
	otp            *OTPService
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	eventPublisher shared.EventPublisher
	config         AuthServiceConfig
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	otp *OTPService,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		otp:        otp,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AuthService) publishDomainEvents(ctx context.Context, user *identity.User) {
	if s.eventPublisher == nil {
		return
	}
	events := user.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	user.ClearDomainEvents()
}

// Register creates a pending account with its role profile and sends the
// registration code.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	role, err := identity.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if !role.SelfRegistrable() {
		return nil, shared.NewDomainError("FORBIDDEN", "This role cannot be registered publicly")
	}

	user, err := identity.NewUser(input.Email, input.Username, input.Password, role)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_EXISTS", "Email is already registered")
	}
	exists, err = s.userRepo.ExistsByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("USERNAME_EXISTS", "Username is already taken")
	}

	profile, err := newProfileFor(user, input)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user, profile); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, user)

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)))

	result := &RegisterResult{User: ToUserInfo(user)}
	issued, err := s.otp.Issue(ctx, user.Email, identity.OTPPurposeRegistration)
	if err != nil {
		// The account exists; the user can ask for another code
		s.logger.Warn("Failed to issue registration otp",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return result, nil
	}
	result.OTPExpiresAt = issued.ExpiresAt
	return result, nil
}

func newProfileFor(user *identity.User, input RegisterInput) (identity.Profile, error) {
	switch user.Role {
	case identity.RoleBuyer:
		return identity.NewBuyerProfile(user.ID, input.FullName, input.Phone, input.ShippingAddress)
	case identity.RoleSeller:
		return identity.NewSellerProfile(user.ID, input.StoreName, input.Description, input.Phone, input.PickupAddress)
	default:
		return identity.NewAdminProfile(user.ID, input.FullName, "")
	}
}

// VerifyEmail checks the registration code and activates the account
func (s *AuthService) VerifyEmail(ctx context.Context, input VerifyEmailInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrOTPInvalid
		}
		return nil, err
	}
	if user.IsEmailVerified() {
		return nil, identity.ErrAlreadyVerified
	}

	if err := s.otp.Verify(ctx, user.Email, identity.OTPPurposeRegistration, input.Code); err != nil {
		return nil, err
	}

	if err := user.VerifyEmail(time.Now()); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, user)

	s.logger.Info("Email verified", zap.String("user_id", user.ID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// ResendOTP re-issues a code. For unknown emails, and for password reset
// codes in general, the response does not reveal whether an account exists.
func (s *AuthService) ResendOTP(ctx context.Context, input ResendOTPInput) (*OTPIssued, error) {
	purpose := identity.OTPPurpose(input.Purpose)
	if !purpose.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Purpose must be registration or password_reset")
	}
	if purpose == identity.OTPPurposePasswordReset {
		return s.RequestPasswordReset(ctx, input.Email)
	}

	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return s.silentIssue(), nil
		}
		return nil, err
	}
	if user.IsEmailVerified() {
		return nil, identity.ErrAlreadyVerified
	}
	return s.otp.Issue(ctx, user.Email, identity.OTPPurposeRegistration)
}

// RequestPasswordReset issues a reset code. Unknown or suspended accounts
// get the same response as real ones.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*OTPIssued, error) {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return s.silentIssue(), nil
		}
		return nil, err
	}
	if user.IsSuspended() {
		s.logger.Warn("Password reset requested for suspended user", zap.String("user_id", user.ID.String()))
		return s.silentIssue(), nil
	}
	return s.otp.Issue(ctx, user.Email, identity.OTPPurposePasswordReset)
}

func (s *AuthService) silentIssue() *OTPIssued {
	return &OTPIssued{ExpiresAt: s.otp.now().Add(s.otp.config.TTL)}
}

// ResetPassword checks the reset code, sets the new password and
// invalidates every session issued before the reset.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.ErrOTPInvalid
		}
		return err
	}

	if err := s.otp.Verify(ctx, user.Email, identity.OTPPurposePasswordReset, input.Code); err != nil {
		return err
	}
	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.publishDomainEvents(ctx, user)
	s.invalidateSessions(ctx, user.ID)

	s.logger.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("identifier", input.Identifier))

	user, err := s.findByIdentifier(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("identifier", input.Identifier))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := user.CheckCanLogin(); err != nil {
		s.logger.Warn("Login refused",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		locked := s.recordLoginFailure(ctx, user)
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("user_id", user.ID.String()),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, identity.ErrUserLocked
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("user_id", user.ID.String()),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, identity.ErrInvalidCredentials
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after login", zap.Error(err))
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", input.IP))

	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserInfo(user),
	}, nil
}

// recordLoginFailure persists one failed attempt. A version conflict means
// another request wrote the user first, so the row is reloaded and the
// failure applied again on top of it.
func (s *AuthService) recordLoginFailure(ctx context.Context, user *identity.User) bool {
	for attempt := 0; ; attempt++ {
		if user.IsLocked() {
			return true
		}
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		err := s.userRepo.Update(ctx, user)
		if err == nil {
			return locked
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= loginFailureRetries {
			s.logger.Error("Failed to update user after login failure",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
			return locked
		}
		reloaded, ferr := s.userRepo.FindByID(ctx, user.ID)
		if ferr != nil {
			s.logger.Error("Failed to reload user after login failure", zap.Error(ferr))
			return locked
		}
		user = reloaded
	}
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (*identity.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, shared.ErrNotFound
	}
	if strings.Contains(identifier, "@") {
		return s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(identifier))
	}
	return s.userRepo.FindByUsername(ctx, identifier)
}

func (s *AuthService) issueTokens(user *identity.User) (*auth.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        string(user.Role),
		Permissions: user.Permissions(),
		Verified:    user.IsEmailVerified(),
	})
	if err != nil {
		s.logger.Error("Failed to generate tokens", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate tokens")
	}
	return pair, nil
}

// RefreshToken exchanges a refresh token for a new pair. The old refresh
// token is revoked so each one can be used once.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*LoginResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Invalid or expired refresh token")
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Invalid user ID in token")
	}

	if s.blacklist != nil {
		if revoked, err := s.blacklist.IsRevoked(ctx, claims.ID); err == nil && revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
		if invalid, err := s.blacklist.UserSessionRevoked(ctx, userID.String(), claims.GetIssuedAtTime()); err == nil && invalid {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "User not found")
	}
	if err := user.CheckCanLogin(); err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		if ttl := claims.GetRemainingTTL(); ttl > 0 {
			if err := s.blacklist.RevokeToken(ctx, claims.ID, ttl); err != nil {
				s.logger.Warn("Failed to revoke used refresh token", zap.Error(err))
			}
		}
	}

	return &LoginResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  ToUserInfo(user),
	}, nil
}

// Logout revokes the access token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))

	if s.blacklist == nil || input.TokenJTI == "" {
		return nil
	}
	ttl := time.Until(input.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.RevokeToken(ctx, input.TokenJTI, ttl); err != nil {
		s.logger.Error("Failed to blacklist token", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke token")
	}
	return nil
}

// ChangePassword changes the user's password and ends other sessions
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.publishDomainEvents(ctx, user)
	s.invalidateSessions(ctx, user.ID)

	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

// GetCurrentUser returns the caller's account
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

func (s *AuthService) invalidateSessions(ctx context.Context, userID uuid.UUID) {
	invalidateSessions(ctx, s.blacklist, s.jwtService, userID, s.logger)
}

func invalidateSessions(ctx context.Context, blacklist auth.TokenBlacklist, jwtService *auth.JWTService, userID uuid.UUID, logger *zap.Logger) {
	if blacklist == nil {
		return
	}
	ttl := 7 * 24 * time.Hour
	if jwtService != nil {
		ttl = jwtService.RefreshTokenTTL()
	}
	if err := blacklist.RevokeUserSessions(ctx, userID.String(), ttl); err != nil {
		logger.Warn("Failed to invalidate user sessions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
