package identity

import (
	"context"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DashboardStats is the admin overview
type DashboardStats struct {
	UsersByRole      map[string]int64 `json:"users_by_role"`
	TotalUsers       int64            `json:"total_users"`
	PendingSellers   int64            `json:"pending_sellers"`
	ProductsByStatus map[string]int64 `json:"products_by_status"`
	ActiveListings   int64            `json:"active_listings"`
	BidsToday        int64            `json:"bids_today"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// AdminService handles user moderation and seller approval
type AdminService struct {
	userRepo       identity.UserRepository
	sellerRepo     identity.SellerProfileRepository
	productRepo    auction.ProductRepository
	bidRepo        auction.BidRepository
	profiles       *ProfileService
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo identity.UserRepository,
	sellerRepo identity.SellerProfileRepository,
	productRepo auction.ProductRepository,
	bidRepo auction.BidRepository,
	profiles *ProfileService,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		sellerRepo:  sellerRepo,
		productRepo: productRepo,
		bidRepo:     bidRepo,
		profiles:    profiles,
		jwtService:  jwtService,
		blacklist:   blacklist,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdminService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AdminService) publishDomainEvents(ctx context.Context, user *identity.User) {
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

// ListUsers returns a filtered page of users
func (s *AdminService) ListUsers(ctx context.Context, input ListUsersInput) (shared.Paginated[UserInfo], error) {
	filter := identity.NewUserFilter().WithKeyword(input.Keyword)
	if input.Page > 0 || input.PageSize > 0 {
		filter = filter.WithPagination(max(input.Page, 1), input.PageSize)
	}
	if input.SortBy != "" {
		filter = filter.WithSorting(input.SortBy, input.SortOrder)
	}
	if input.Role != "" {
		role, err := identity.ParseRole(input.Role)
		if err != nil {
			return shared.Paginated[UserInfo]{}, err
		}
		filter = filter.WithRole(role)
	}
	if input.Status != "" {
		status := identity.UserStatus(input.Status)
		switch status {
		case identity.UserStatusPending, identity.UserStatusActive, identity.UserStatusSuspended:
			filter = filter.WithStatus(status)
		default:
			return shared.Paginated[UserInfo]{}, shared.NewDomainError("INVALID_INPUT", "Unknown user status")
		}
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[UserInfo]{}, err
	}
	items := make([]UserInfo, len(users))
	for i, u := range users {
		items[i] = ToUserInfo(u)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// GetUser returns the admin view of one user including their profile
func (s *AdminService) GetUser(ctx context.Context, id uuid.UUID) (*UserDetail, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := toUserDetail(user)
	profile, err := s.profiles.profileOf(ctx, user)
	if err != nil {
		s.logger.Warn("Failed to load profile", zap.String("user_id", id.String()), zap.Error(err))
	} else {
		detail.Profile = profile
	}
	return &detail, nil
}

// SuspendUser blocks a user and ends their sessions. Admins cannot suspend
// themselves.
func (s *AdminService) SuspendUser(ctx context.Context, adminID, userID uuid.UUID, reason string) (*UserInfo, error) {
	if adminID == userID {
		return nil, shared.NewDomainError("CANNOT_SUSPEND_SELF", "You cannot suspend your own account")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.Suspend(reason); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, user)
	invalidateSessions(ctx, s.blacklist, s.jwtService, user.ID, s.logger)

	s.logger.Info("User suspended",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", adminID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// ReactivateUser lifts a suspension
func (s *AdminService) ReactivateUser(ctx context.Context, adminID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := user.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, user)

	s.logger.Info("User reactivated",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", adminID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

func (s *AdminService) sellerProfile(ctx context.Context, userID uuid.UUID) (*identity.SellerProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != identity.RoleSeller {
		return nil, shared.NewDomainError("NOT_A_SELLER", "User is not a seller")
	}
	return s.sellerRepo.FindByUserID(ctx, userID)
}

// ApproveSeller allows a seller to manage listings
func (s *AdminService) ApproveSeller(ctx context.Context, adminID, userID uuid.UUID) (*SellerProfile, error) {
	p, err := s.sellerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Approve(adminID, s.now()); err != nil {
		return nil, err
	}
	if err := s.sellerRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Seller approved",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", adminID.String()))
	return toSellerProfile(p), nil
}

// RevokeSeller withdraws a seller's approval
func (s *AdminService) RevokeSeller(ctx context.Context, adminID, userID uuid.UUID) (*SellerProfile, error) {
	p, err := s.sellerProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Revoke(); err != nil {
		return nil, err
	}
	if err := s.sellerRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Seller approval revoked",
		zap.String("user_id", userID.String()),
		zap.String("admin_id", adminID.String()))
	return toSellerProfile(p), nil
}

// Dashboard aggregates user, listing and bid counts. Bids today counts
// from midnight UTC.
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now().UTC()
	stats := &DashboardStats{
		UsersByRole:      make(map[string]int64),
		ProductsByStatus: make(map[string]int64),
		GeneratedAt:      now,
	}

	byRole, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	for role, n := range byRole {
		stats.UsersByRole[string(role)] = n
		stats.TotalUsers += n
	}

	if stats.PendingSellers, err = s.sellerRepo.CountPendingApproval(ctx); err != nil {
		return nil, err
	}

	byStatus, err := s.productRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for status, n := range byStatus {
		stats.ProductsByStatus[string(status)] = n
	}
	stats.ActiveListings = byStatus[auction.ProductStatusActive]

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if stats.BidsToday, err = s.bidRepo.CountSince(ctx, midnight); err != nil {
		return nil, err
	}
	return stats, nil
}
