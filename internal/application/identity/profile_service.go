package identity

import (
	"context"
	"errors"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errProfileRoleMismatch = shared.NewDomainError("FORBIDDEN", "Profile kind does not match your role")

// ProfileService reads and edits the role profile attached to each user
type ProfileService struct {
	userRepo   identity.UserRepository
	buyerRepo  identity.BuyerProfileRepository
	sellerRepo identity.SellerProfileRepository
	adminRepo  identity.AdminProfileRepository
	logger     *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(
	userRepo identity.UserRepository,
	buyerRepo identity.BuyerProfileRepository,
	sellerRepo identity.SellerProfileRepository,
	adminRepo identity.AdminProfileRepository,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		userRepo:   userRepo,
		buyerRepo:  buyerRepo,
		sellerRepo: sellerRepo,
		adminRepo:  adminRepo,
		logger:     logger,
	}
}

// GetMyProfile returns the user and the profile for their role
func (s *ProfileService) GetMyProfile(ctx context.Context, userID uuid.UUID) (*ProfileResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, user)
}

func (s *ProfileService) profileOf(ctx context.Context, user *identity.User) (*ProfileResult, error) {
	result := &ProfileResult{User: ToUserInfo(user)}
	switch user.Role {
	case identity.RoleBuyer:
		p, err := s.buyerRepo.FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Buyer = toBuyerProfile(p)
	case identity.RoleSeller:
		p, err := s.sellerRepo.FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Seller = toSellerProfile(p)
	case identity.RoleAdmin:
		p, err := s.adminRepo.FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Admin = toAdminProfile(p)
	}
	return result, nil
}

func (s *ProfileService) requireRole(ctx context.Context, userID uuid.UUID, role identity.Role) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != role {
		return errProfileRoleMismatch
	}
	return nil
}

// UpdateBuyerProfile edits the caller's buyer profile
func (s *ProfileService) UpdateBuyerProfile(ctx context.Context, userID uuid.UUID, input UpdateBuyerProfileInput) (*BuyerProfile, error) {
	if err := s.requireRole(ctx, userID, identity.RoleBuyer); err != nil {
		return nil, err
	}
	p, err := s.buyerRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(input.FullName, input.Phone, input.ShippingAddress); err != nil {
		return nil, err
	}
	if err := s.buyerRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Buyer profile updated", zap.String("user_id", userID.String()))
	return toBuyerProfile(p), nil
}

// UpdateSellerProfile edits the caller's seller profile. Approval is kept.
func (s *ProfileService) UpdateSellerProfile(ctx context.Context, userID uuid.UUID, input UpdateSellerProfileInput) (*SellerProfile, error) {
	if err := s.requireRole(ctx, userID, identity.RoleSeller); err != nil {
		return nil, err
	}
	p, err := s.sellerRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(input.StoreName, input.Description, input.Phone, input.PickupAddress); err != nil {
		return nil, err
	}
	if err := s.sellerRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Seller profile updated", zap.String("user_id", userID.String()))
	return toSellerProfile(p), nil
}

// UpdateAdminProfile edits the caller's admin profile
func (s *ProfileService) UpdateAdminProfile(ctx context.Context, userID uuid.UUID, input UpdateAdminProfileInput) (*AdminProfile, error) {
	if err := s.requireRole(ctx, userID, identity.RoleAdmin); err != nil {
		return nil, err
	}
	p, err := s.adminRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Update(input.FullName, input.Department); err != nil {
		return nil, err
	}
	if err := s.adminRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return toAdminProfile(p), nil
}

// IsApprovedSeller reports whether the user's seller profile was approved
// by an administrator. A missing profile counts as not approved.
func (s *ProfileService) IsApprovedSeller(ctx context.Context, userID uuid.UUID) (bool, error) {
	p, err := s.sellerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return p.Approved, nil
}
