package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bidhouse/backend/internal/infrastructure/auth"
	"github.com/bidhouse/backend/internal/infrastructure/logger"
	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// gin context keys set for authenticated requests. JWTUserIDKey matches the
// key the access log reads.
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "user_id"
	JWTRoleKey     = "jwt_role"
	JWTPermissions = "jwt_permissions"
	BearerPrefix   = "Bearer "
)

type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist enables logout and session invalidation checks
	TokenBlacklist auth.TokenBlacklist
	Logger         *zap.Logger
}

// authFailure is why a request could not be authenticated
type authFailure struct {
	err     error
	message string
}

// JWTAuthMiddleware authenticates without revocation checks
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: jwtService})
}

// JWTAuthMiddlewareWithConfig requires a valid, unrevoked access token and
// answers 401 otherwise. Blacklist lookups fail open: a cache outage is
// logged and the token is accepted.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims, failure := authenticate(c, cfg.JWTService, cfg.TokenBlacklist, log)
		if failure != nil {
			log.Warn("JWT authentication failed",
				zap.Error(failure.err),
				zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, failure)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuthMiddleware sets the caller when a valid, unrevoked token is
// present and lets every request through. Public product pages use it so
// sellers can see their own drafts.
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService, blacklist auth.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, failure := authenticate(c, jwtService, blacklist, zap.NewNop()); failure == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, log *zap.Logger) (*auth.Claims, *authFailure) {
	token, why := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return nil, &authFailure{auth.ErrInvalidToken, why}
	}
	claims, err := jwtService.ValidateAccessToken(token)
	if err != nil {
		return nil, &authFailure{err, "Token validation failed"}
	}
	if blacklist != nil {
		if reason := revocation(c.Request.Context(), blacklist, claims, log); reason != "" {
			return nil, &authFailure{auth.ErrTokenBlacklisted, reason}
		}
	}
	return claims, nil
}

// revocation reports why the token is no longer usable: an explicit logout
// of this token, or a later suspension or password change of its user
func revocation(ctx context.Context, blacklist auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) string {
	if claims.ID != "" {
		revoked, err := blacklist.IsRevoked(ctx, claims.ID)
		switch {
		case err != nil:
			log.Error("Token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		case revoked:
			return "Token has been revoked"
		}
	}
	invalidated, err := blacklist.UserSessionRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
	switch {
	case err != nil:
		log.Error("Session invalidation lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
	case invalidated:
		return "User session has been invalidated"
	}
	return ""
}

// bearerToken returns the token, or "" and the reason it is missing
func bearerToken(header string) (string, string) {
	switch {
	case header == "":
		return "", "Missing authorization header"
	case !strings.HasPrefix(header, BearerPrefix):
		return "", "Invalid authorization header format"
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	if token == "" {
		return "", "Missing token"
	}
	return token, ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTRoleKey, claims.Role)
	c.Set(JWTPermissions, claims.Permissions)

	ctx := c.Request.Context()
	ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}

func abortUnauthorized(c *gin.Context, f *authFailure) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(f.err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(f.err, auth.ErrTokenBlacklisted):
		code, message = "TOKEN_REVOKED", f.message
	case errors.Is(f.err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(f.err, auth.ErrInvalidToken),
		errors.Is(f.err, auth.ErrInvalidTokenType),
		errors.Is(f.err, auth.ErrInvalidClaims),
		errors.Is(f.err, auth.ErrMissingUserID):
		code, message = dto.ErrCodeTokenInvalid, f.message
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims returns the claims of an authenticated request, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func GetJWTUserID(c *gin.Context) string { return c.GetString(JWTUserIDKey) }

func GetJWTRole(c *gin.Context) string { return c.GetString(JWTRoleKey) }

func GetJWTPermissions(c *gin.Context) []string { return c.GetStringSlice(JWTPermissions) }
