package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/bidhouse/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims carries the identity and gating facts the HTTP middleware needs
// without a database round trip. Refresh tokens carry only the user.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string    `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	Email       string    `json:"email,omitempty"`
	Role        string    `json:"role,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	Verified    bool      `json:"verified"`
	TokenType   TokenType `json:"token_type"`
}

type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// GenerateTokenInput is the user snapshot baked into an access token
type GenerateTokenInput struct {
	UserID      uuid.UUID
	Username    string
	Email       string
	Role        string
	Permissions []string
	Verified    bool
}

// tokenKind pairs a signing key with a lifetime
type tokenKind struct {
	typ    TokenType
	secret []byte
	ttl    time.Duration
}

// JWTService issues and validates HS256 tokens
type JWTService struct {
	access  tokenKind
	refresh tokenKind
	issuer  string
	parser  *jwt.Parser
}

// NewJWTService builds the service from config. Without a refresh secret
// both token types share the access secret; the token_type claim still
// keeps them apart.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		access:  tokenKind{TokenTypeAccess, []byte(cfg.Secret), cfg.AccessTokenExpiration},
		refresh: tokenKind{TokenTypeRefresh, []byte(refreshSecret), cfg.RefreshTokenExpiration},
		issuer:  cfg.Issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithIssuedAt(),
		),
	}
}

// Session cuts are compared against iat, so tokens carry millisecond
// timestamps instead of whole seconds.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// GenerateTokenPair signs an access token with the user snapshot and a
// refresh token that only names the user
func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	now := time.Now()

	accessToken, err := s.issue(s.access, now, &Claims{
		UserID:      input.UserID.String(),
		Username:    input.Username,
		Email:       input.Email,
		Role:        input.Role,
		Permissions: input.Permissions,
		Verified:    input.Verified,
	})
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issue(s.refresh, now, &Claims{UserID: input.UserID.String()})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  now.Add(s.access.ttl),
		RefreshTokenExpiresAt: now.Add(s.refresh.ttl),
		TokenType:             "Bearer",
	}, nil
}

func (s *JWTService) issue(kind tokenKind, now time.Time, claims *Claims) (string, error) {
	claims.TokenType = kind.typ
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		Audience:  jwt.ClaimStrings{s.issuer},
		ExpiresAt: jwt.NewNumericDate(now.Add(kind.ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(kind.secret)
}

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, s.access)
}

func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, s.refresh)
}

func (s *JWTService) parse(raw string, kind tokenKind) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return kind.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.TokenType != kind.typ {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// RefreshTokenTTL is how long a refresh token stays revocable
func (s *JWTService) RefreshTokenTTL() time.Duration { return s.refresh.ttl }

func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

func (c *Claims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// HasAnyRole reports whether the token's role is one of roles
func (c *Claims) HasAnyRole(roles ...string) bool {
	return slices.Contains(roles, c.Role)
}

// GetIssuedAtTime returns iat, or the zero time for tokens without one
func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL returns the time until expiry, never negative
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
