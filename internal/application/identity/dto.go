package identity

import (
	"time"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// RegisterInput carries the sign up form. Profile fields are read according
// to Role: buyers use FullName, Phone and ShippingAddress, sellers use
// StoreName, Description, Phone and PickupAddress.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     string

	FullName        string
	Phone           string
	ShippingAddress string
	StoreName       string
	Description     string
	PickupAddress   string
}

// RegisterResult is returned after sign up; the account is still pending
type RegisterResult struct {
	User         UserInfo
	OTPExpiresAt time.Time
}

// LoginInput accepts either email or username as Identifier
type LoginInput struct {
	Identifier string
	Password   string
	IP         string
}

// LoginResult contains the issued tokens and the user
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo is the public view of an account
type UserInfo struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	Permissions   []string   `json:"permissions"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToUserInfo converts the aggregate into its public view
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Role:          string(u.Role),
		Status:        string(u.Status),
		EmailVerified: u.IsEmailVerified(),
		Permissions:   u.Permissions(),
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput identifies the access token to revoke
type LogoutInput struct {
	UserID    uuid.UUID
	TokenJTI  string
	ExpiresAt time.Time
}

type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

type VerifyEmailInput struct {
	Email string
	Code  string
}

type ResendOTPInput struct {
	Email   string
	Purpose string
}

type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// OTPIssued tells the client when the code expires without revealing it
type OTPIssued struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileResult is the base user plus the role's profile. Exactly one of
// the profile pointers is set.
type ProfileResult struct {
	User   UserInfo       `json:"user"`
	Buyer  *BuyerProfile  `json:"buyer,omitempty"`
	Seller *SellerProfile `json:"seller,omitempty"`
	Admin  *AdminProfile  `json:"admin,omitempty"`
}

type BuyerProfile struct {
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	ShippingAddress string    `json:"shipping_address"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SellerProfile struct {
	StoreName     string     `json:"store_name"`
	Description   string     `json:"description"`
	Phone         string     `json:"phone"`
	PickupAddress string     `json:"pickup_address"`
	Approved      bool       `json:"approved"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type AdminProfile struct {
	FullName   string    `json:"full_name"`
	Department string    `json:"department"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toBuyerProfile(p *identity.BuyerProfile) *BuyerProfile {
	return &BuyerProfile{
		FullName:        p.FullName,
		Phone:           p.Phone,
		ShippingAddress: p.ShippingAddress,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toSellerProfile(p *identity.SellerProfile) *SellerProfile {
	return &SellerProfile{
		StoreName:     p.StoreName,
		Description:   p.Description,
		Phone:         p.Phone,
		PickupAddress: p.PickupAddress,
		Approved:      p.Approved,
		ApprovedAt:    p.ApprovedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toAdminProfile(p *identity.AdminProfile) *AdminProfile {
	return &AdminProfile{
		FullName:   p.FullName,
		Department: p.Department,
		UpdatedAt:  p.UpdatedAt,
	}
}

type UpdateBuyerProfileInput struct {
	FullName        string
	Phone           string
	ShippingAddress string
}

type UpdateSellerProfileInput struct {
	StoreName     string
	Description   string
	Phone         string
	PickupAddress string
}

type UpdateAdminProfileInput struct {
	FullName   string
	Department string
}

// ListUsersInput filters the admin user list
type ListUsersInput struct {
	Keyword   string
	Role      string
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// UserDetail is the admin view of one account
type UserDetail struct {
	UserInfo
	FailedAttempts  int            `json:"failed_attempts"`
	LockedUntil     *time.Time     `json:"locked_until,omitempty"`
	LastLoginIP     string         `json:"last_login_ip,omitempty"`
	SuspendedReason string         `json:"suspended_reason,omitempty"`
	Profile         *ProfileResult `json:"profile,omitempty"`
}

func toUserDetail(u *identity.User) UserDetail {
	return UserDetail{
		UserInfo:        ToUserInfo(u),
		FailedAttempts:  u.FailedAttempts,
		LockedUntil:     u.LockedUntil,
		LastLoginIP:     u.LastLoginIP,
		SuspendedReason: u.SuspendedReason,
	}
}
