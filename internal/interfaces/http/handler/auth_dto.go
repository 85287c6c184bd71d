package handler

import (
	"time"

	"github.com/bidhouse/backend/internal/application/identity"
)

// =====================
// Auth Request DTOs
// =====================

// RegisterRequest represents the sign up form. Profile fields are read
// according to role.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254" example:"alice@example.com"`
	Username string `json:"username" binding:"required,username" example:"alice_01"`
	Password string `json:"password" binding:"required,min=8,max=128" example:"s3cret-pass"`
	Role     string `json:"role" binding:"required,oneof=buyer seller" example:"buyer"`

	FullName        string `json:"full_name" binding:"max=100" example:"Alice Doe"`
	Phone           string `json:"phone" binding:"max=30" example:"+1-555-0100"`
	ShippingAddress string `json:"shipping_address" binding:"max=500"`
	StoreName       string `json:"store_name" binding:"required_if=Role seller,max=100" example:"Alice Antiques"`
	Description     string `json:"description" binding:"max=2000"`
	PickupAddress   string `json:"pickup_address" binding:"max=500"`
}

// VerifyEmailRequest carries the emailed code
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
	Code  string `json:"code" binding:"required,len=6,numeric" example:"482913"`
}

// ResendOTPRequest asks for a fresh code
type ResendOTPRequest struct {
	Email   string `json:"email" binding:"required,email" example:"alice@example.com"`
	Purpose string `json:"purpose" binding:"omitempty,oneof=registration password_reset" example:"registration"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required,min=3,max=254" example:"alice@example.com"`
	Password   string `json:"password" binding:"required,min=8,max=128" example:"s3cret-pass"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ForgotPasswordRequest starts a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email" example:"alice@example.com"`
	Code        string `json:"code" binding:"required,len=6,numeric" example:"482913"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128,nefield=OldPassword"`
}

// =====================
// Auth Response DTOs
// =====================

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type" example:"Bearer"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token TokenResponse     `json:"token"`
	User  identity.UserInfo `json:"user"`
}

// RegisterResponse is returned after sign up; the email still needs verifying
type RegisterResponse struct {
	User         identity.UserInfo `json:"user"`
	OTPExpiresAt time.Time         `json:"otp_expires_at"`
	Message      string            `json:"message" example:"Verification code sent"`
}

func toTokenResponse(r *identity.LoginResult) TokenResponse {
	return TokenResponse{
		AccessToken:           r.AccessToken,
		RefreshToken:          r.RefreshToken,
		AccessTokenExpiresAt:  r.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
		TokenType:             r.TokenType,
	}
}
