package handler

import (
	"context"

	"github.com/bidhouse/backend/internal/application/identity"
	"github.com/bidhouse/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthService is the part of identity.AuthService the HTTP layer calls
type AuthService interface {
	Register(ctx context.Context, input identity.RegisterInput) (*identity.RegisterResult, error)
	VerifyEmail(ctx context.Context, input identity.VerifyEmailInput) (*identity.UserInfo, error)
	ResendOTP(ctx context.Context, input identity.ResendOTPInput) (*identity.OTPIssued, error)
	RequestPasswordReset(ctx context.Context, email string) (*identity.OTPIssued, error)
	ResetPassword(ctx context.Context, input identity.ResetPasswordInput) error
	Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error)
	RefreshToken(ctx context.Context, input identity.RefreshTokenInput) (*identity.LoginResult, error)
	Logout(ctx context.Context, input identity.LogoutInput) error
	ChangePassword(ctx context.Context, input identity.ChangePasswordInput) error
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*identity.UserInfo, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register godoc
// @Summary      Register an account
// @Description  Create a buyer or seller account and email a verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Sign up form"
// @Success      201 {object} dto.Response{data=RegisterResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		Role:            req.Role,
		FullName:        req.FullName,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		StoreName:       req.StoreName,
		Description:     req.Description,
		PickupAddress:   req.PickupAddress,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, RegisterResponse{
		User:         result.User,
		OTPExpiresAt: result.OTPExpiresAt,
		Message:      "Verification code sent",
	})
}

// VerifyEmail godoc
// @Summary      Verify email
// @Description  Confirm the registration code and activate the account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Email and code"
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.authService.VerifyEmail(c.Request.Context(), identity.VerifyEmailInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ResendOTP godoc
// @Summary      Resend verification code
// @Description  Issue a fresh code. Unknown addresses get the same response.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendOTPRequest true "Email and purpose"
// @Success      200 {object} dto.Response{data=identity.OTPIssued}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Purpose == "" {
		req.Purpose = "registration"
	}

	issued, err := h.authService.ResendOTP(c.Request.Context(), identity.ResendOTPInput{
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, issued)
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with email or username and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      423 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		IP:         c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		Token: toTokenResponse(result),
		User:  result.User,
	})
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Exchange a refresh token for a new pair. The old refresh token stops working.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), identity.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		Token: toTokenResponse(result),
		User:  result.User,
	})
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Email a reset code. The response does not reveal whether the account exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Account email"
// @Success      200 {object} dto.Response{data=identity.OTPIssued}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	issued, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, issued)
}

// ResetPassword godoc
// @Summary      Reset password
// @Description  Set a new password with the emailed code. Existing sessions are revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Code and new password"
// @Success      200 {object} dto.Response{data=MessageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.authService.ResetPassword(c.Request.Context(), identity.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageData{Message: "Password has been reset"})
}

// Logout godoc
// @Summary      User logout
// @Description  Revoke the access token used for this request
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=MessageData}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		h.BadRequest(c, "Invalid user ID in token")
		return
	}

	input := identity.LogoutInput{
		UserID:   userID,
		TokenJTI: claims.ID,
	}
	if claims.ExpiresAt != nil {
		input.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := h.authService.Logout(c.Request.Context(), input); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageData{Message: "Logged out successfully"})
}

// GetCurrentUser godoc
// @Summary      Get current user
// @Description  Get the currently authenticated user's information
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Change the current user's password. Other sessions are revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Password change request"
// @Success      200 {object} dto.Response{data=MessageData}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), identity.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageData{Message: "Password changed successfully"})
}
