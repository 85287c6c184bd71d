package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)

// Profile is the role-specific record linked 1:1 to a User
type Profile interface {
	GetUserID() uuid.UUID
	ProfileRole() Role
}

// BuyerProfile holds buyer contact and delivery details
type BuyerProfile struct {
	shared.BaseEntity
	UserID          uuid.UUID
	FullName        string
	Phone           string
	ShippingAddress string
}

// NewBuyerProfile creates the profile for a buyer account
func NewBuyerProfile(userID uuid.UUID, fullName, phone, shippingAddress string) (*BuyerProfile, error) {
	p := &BuyerProfile{BaseEntity: shared.NewBaseEntity(), UserID: userID}
	if err := p.Update(fullName, phone, shippingAddress); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable buyer fields
func (p *BuyerProfile) Update(fullName, phone, shippingAddress string) error {
	fullName = strings.TrimSpace(fullName)
	phone = strings.TrimSpace(phone)
	if err := validateLength("full_name", fullName, 100); err != nil {
		return err
	}
	if err := validatePhone(phone); err != nil {
		return err
	}
	if err := validateLength("shipping_address", shippingAddress, 500); err != nil {
		return err
	}
	p.FullName = fullName
	p.Phone = phone
	p.ShippingAddress = strings.TrimSpace(shippingAddress)
	p.Touch()
	return nil
}

func (p *BuyerProfile) GetUserID() uuid.UUID { return p.UserID }
func (p *BuyerProfile) ProfileRole() Role    { return RoleBuyer }

// SellerProfile holds the storefront details and the admin approval state
type SellerProfile struct {
	shared.BaseEntity
	UserID        uuid.UUID
	StoreName     string
	Description   string
	Phone         string
	PickupAddress string
	Approved      bool
	ApprovedAt    *time.Time
	ApprovedBy    *uuid.UUID
}

// NewSellerProfile creates an unapproved seller profile
func NewSellerProfile(userID uuid.UUID, storeName, description, phone, pickupAddress string) (*SellerProfile, error) {
	p := &SellerProfile{BaseEntity: shared.NewBaseEntity(), UserID: userID}
	if err := p.Update(storeName, description, phone, pickupAddress); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable seller fields
func (p *SellerProfile) Update(storeName, description, phone, pickupAddress string) error {
	storeName = strings.TrimSpace(storeName)
	phone = strings.TrimSpace(phone)
	if storeName == "" {
		return shared.NewDomainError("INVALID_STORE_NAME", "Store name is required")
	}
	if err := validateLength("store_name", storeName, 100); err != nil {
		return err
	}
	if err := validateLength("description", description, 2000); err != nil {
		return err
	}
	if err := validatePhone(phone); err != nil {
		return err
	}
	if err := validateLength("pickup_address", pickupAddress, 500); err != nil {
		return err
	}
	p.StoreName = storeName
	p.Description = strings.TrimSpace(description)
	p.Phone = phone
	p.PickupAddress = strings.TrimSpace(pickupAddress)
	p.Touch()
	return nil
}

// Approve allows the seller to list products
func (p *SellerProfile) Approve(adminID uuid.UUID, now time.Time) error {
	if p.Approved {
		return shared.NewDomainError("ALREADY_APPROVED", "Seller is already approved")
	}
	p.Approved = true
	p.ApprovedAt = &now
	p.ApprovedBy = &adminID
	p.Touch()
	return nil
}

// Revoke withdraws the listing approval
func (p *SellerProfile) Revoke() error {
	if !p.Approved {
		return shared.NewDomainError("NOT_APPROVED", "Seller is not approved")
	}
	p.Approved = false
	p.ApprovedAt = nil
	p.ApprovedBy = nil
	p.Touch()
	return nil
}

func (p *SellerProfile) GetUserID() uuid.UUID { return p.UserID }
func (p *SellerProfile) ProfileRole() Role    { return RoleSeller }

// AdminProfile holds staff details for administrators
type AdminProfile struct {
	shared.BaseEntity
	UserID     uuid.UUID
	FullName   string
	Department string
}

func NewAdminProfile(userID uuid.UUID, fullName, department string) (*AdminProfile, error) {
	p := &AdminProfile{BaseEntity: shared.NewBaseEntity(), UserID: userID}
	if err := p.Update(fullName, department); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AdminProfile) Update(fullName, department string) error {
	fullName = strings.TrimSpace(fullName)
	if err := validateLength("full_name", fullName, 100); err != nil {
		return err
	}
	if err := validateLength("department", department, 100); err != nil {
		return err
	}
	p.FullName = fullName
	p.Department = strings.TrimSpace(department)
	p.Touch()
	return nil
}

func (p *AdminProfile) GetUserID() uuid.UUID { return p.UserID }
func (p *AdminProfile) ProfileRole() Role    { return RoleAdmin }

func validateLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return shared.NewDomainError("INVALID_INPUT", field+" is too long")
	}
	return nil
}

// Phone is optional; when present it must look like a phone number
func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}
