package middleware

import (
	"context"
	"net/http"

	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PermissionConfig is shared by the access middlewares
type PermissionConfig struct {
	// Logger records denials; nil disables it
	Logger *zap.Logger
}

// RequirePermission admits tokens carrying any of permissions. Role gates
// sit on the route groups; this narrows single routes.
func RequirePermission(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			deny(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, p := range permissions {
			if claims.HasPermission(p) {
				c.Next()
				return
			}
		}
		if cfg.Logger != nil {
			cfg.Logger.Warn("Permission denied",
				zap.String("user_id", claims.UserID),
				zap.Strings("required_any", permissions),
				zap.Strings("user_permissions", claims.Permissions),
				zap.String("path", c.Request.URL.Path),
			)
		}
		deny(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access denied: insufficient permissions")
	}
}

// RequireRole admits only tokens whose role is one of roles
func RequireRole(cfg PermissionConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			deny(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.HasAnyRole(roles...) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Role denied",
					zap.String("user_id", claims.UserID),
					zap.String("role", claims.Role),
					zap.Strings("required_roles", roles),
					zap.String("path", c.Request.URL.Path),
				)
			}
			deny(c, http.StatusForbidden, dto.ErrCodeForbidden, "This endpoint is not available to your role")
			return
		}
		c.Next()
	}
}

// RequireVerified rejects tokens issued before the email was verified.
// The claim is a snapshot: a session opened before verification is
// refused until the client logs in again or refreshes its tokens.
func RequireVerified(cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			deny(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.Verified {
			if cfg.Logger != nil {
				cfg.Logger.Debug("Unverified caller refused", zap.String("user_id", claims.UserID), zap.String("path", c.Request.URL.Path))
			}
			deny(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Verify your email address first")
			return
		}
		c.Next()
	}
}

// SellerApprovals answers whether a seller may list products.
// identity.ProfileService satisfies it.
type SellerApprovals interface {
	IsApprovedSeller(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireApprovedSeller looks up the seller profile on every request, so an
// approval or revocation applies without re-login
func RequireApprovedSeller(approvals SellerApprovals, cfg PermissionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			deny(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		userID, err := claims.GetUserUUID()
		if err != nil {
			deny(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token subject")
			return
		}
		approved, err := approvals.IsApprovedSeller(c.Request.Context(), userID)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check seller approval", zap.String("user_id", claims.UserID), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
			return
		}
		if !approved {
			deny(c, http.StatusForbidden, "NOT_APPROVED", "Seller account is awaiting admin approval")
			return
		}
		c.Next()
	}
}

func deny(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
