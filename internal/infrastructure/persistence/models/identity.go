package models

import (
	"time"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// UserModel is the persistence model for the User aggregate.
type UserModel struct {
	AggregateModel
	Email             string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	Username          string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	PasswordHash      string              `gorm:"type:varchar(255);not null"`
	Role              identity.Role       `gorm:"type:varchar(20);not null;index"`
	Status            identity.UserStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	EmailVerifiedAt   *time.Time
	FailedAttempts    int        `gorm:"not null;default:0"`
	LockedUntil       *time.Time
	LastLoginAt       *time.Time
	LastLoginIP       string     `gorm:"type:varchar(45)"`
	PasswordChangedAt *time.Time
	SuspendedReason   string     `gorm:"type:varchar(500)"`
}

func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.Root(),
		Email:             m.Email,
		Username:          m.Username,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		Status:            m.Status,
		EmailVerifiedAt:   m.EmailVerifiedAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
		LastLoginAt:       m.LastLoginAt,
		LastLoginIP:       m.LastLoginIP,
		PasswordChangedAt: m.PasswordChangedAt,
		SuspendedReason:   m.SuspendedReason,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.SetRoot(u.BaseAggregateRoot)
	m.Email = u.Email
	m.Username = u.Username
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.Status = u.Status
	m.EmailVerifiedAt = u.EmailVerifiedAt
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.PasswordChangedAt = u.PasswordChangedAt
	m.SuspendedReason = u.SuspendedReason
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// BuyerProfileModel maps identity.BuyerProfile
type BuyerProfileModel struct {
	BaseModel
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	FullName        string    `gorm:"type:varchar(100)"`
	Phone           string    `gorm:"type:varchar(30)"`
	ShippingAddress string    `gorm:"type:varchar(500)"`
}

func (BuyerProfileModel) TableName() string {
	return "buyer_profiles"
}

func (m *BuyerProfileModel) ToDomain() *identity.BuyerProfile {
	return &identity.BuyerProfile{
		BaseEntity:      m.Entity(),
		UserID:          m.UserID,
		FullName:        m.FullName,
		Phone:           m.Phone,
		ShippingAddress: m.ShippingAddress,
	}
}

func BuyerProfileModelFromDomain(p *identity.BuyerProfile) *BuyerProfileModel {
	m := &BuyerProfileModel{
		UserID:          p.UserID,
		FullName:        p.FullName,
		Phone:           p.Phone,
		ShippingAddress: p.ShippingAddress,
	}
	m.SetEntity(p.BaseEntity)
	return m
}

// SellerProfileModel maps identity.SellerProfile
type SellerProfileModel struct {
	BaseModel
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	StoreName     string     `gorm:"type:varchar(100);not null"`
	Description   string     `gorm:"type:text"`
	Phone         string     `gorm:"type:varchar(30)"`
	PickupAddress string     `gorm:"type:varchar(500)"`
	Approved      bool       `gorm:"not null;default:false;index"`
	ApprovedAt    *time.Time
	ApprovedBy    *uuid.UUID `gorm:"type:uuid"`
}

func (SellerProfileModel) TableName() string {
	return "seller_profiles"
}

func (m *SellerProfileModel) ToDomain() *identity.SellerProfile {
	return &identity.SellerProfile{
		BaseEntity:    m.Entity(),
		UserID:        m.UserID,
		StoreName:     m.StoreName,
		Description:   m.Description,
		Phone:         m.Phone,
		PickupAddress: m.PickupAddress,
		Approved:      m.Approved,
		ApprovedAt:    m.ApprovedAt,
		ApprovedBy:    m.ApprovedBy,
	}
}

func SellerProfileModelFromDomain(p *identity.SellerProfile) *SellerProfileModel {
	m := &SellerProfileModel{
		UserID:        p.UserID,
		StoreName:     p.StoreName,
		Description:   p.Description,
		Phone:         p.Phone,
		PickupAddress: p.PickupAddress,
		Approved:      p.Approved,
		ApprovedAt:    p.ApprovedAt,
		ApprovedBy:    p.ApprovedBy,
	}
	m.SetEntity(p.BaseEntity)
	return m
}

// AdminProfileModel maps identity.AdminProfile
type AdminProfileModel struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	FullName   string    `gorm:"type:varchar(100)"`
	Department string    `gorm:"type:varchar(100)"`
}

func (AdminProfileModel) TableName() string {
	return "admin_profiles"
}

func (m *AdminProfileModel) ToDomain() *identity.AdminProfile {
	return &identity.AdminProfile{
		BaseEntity: m.Entity(),
		UserID:     m.UserID,
		FullName:   m.FullName,
		Department: m.Department,
	}
}

func AdminProfileModelFromDomain(p *identity.AdminProfile) *AdminProfileModel {
	m := &AdminProfileModel{
		UserID:     p.UserID,
		FullName:   p.FullName,
		Department: p.Department,
	}
	m.SetEntity(p.BaseEntity)
	return m
}
