package identity

import (
	"context"
	"testing"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type profileFixture struct {
	users    *MockUserRepository
	buyers   *MockBuyerProfileRepository
	sellers  *MockSellerProfileRepository
	admins   *MockAdminProfileRepository
	products *MockProductRepository
	bids     *MockBidRepository
	profiles *ProfileService
	admin    *AdminService
	tokens   *auth.InMemoryTokenBlacklist
}

func newProfileFixture() *profileFixture {
	f := &profileFixture{
		users:    new(MockUserRepository),
		buyers:   new(MockBuyerProfileRepository),
		sellers:  new(MockSellerProfileRepository),
		admins:   new(MockAdminProfileRepository),
		products: new(MockProductRepository),
		bids:     new(MockBidRepository),
		tokens:   auth.NewInMemoryTokenBlacklist(),
	}
	f.profiles = NewProfileService(f.users, f.buyers, f.sellers, f.admins, zap.NewNop())
	f.admin = NewAdminService(f.users, f.sellers, f.products, f.bids, f.profiles, nil, f.tokens, zap.NewNop())
	return f
}

func TestProfileService_GetMyProfile(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()
	seller := newTestUser(t, "shop@example.com", "shop", identity.RoleSeller)
	profile, err := identity.NewSellerProfile(seller.ID, "Corner Shop", "vintage", "", "")
	require.NoError(t, err)

	f.users.On("FindByID", ctx, seller.ID).Return(seller, nil)
	f.sellers.On("FindByUserID", ctx, seller.ID).Return(profile, nil)

	result, err := f.profiles.GetMyProfile(ctx, seller.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Seller)
	assert.Nil(t, result.Buyer)
	assert.Equal(t, "Corner Shop", result.Seller.StoreName)
	assert.False(t, result.Seller.Approved)
	f.buyers.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestProfileService_UpdateRequiresMatchingRole(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()
	seller := newTestUser(t, "shop@example.com", "shop", identity.RoleSeller)
	f.users.On("FindByID", ctx, seller.ID).Return(seller, nil)

	_, err := f.profiles.UpdateBuyerProfile(ctx, seller.ID, UpdateBuyerProfileInput{FullName: "Not a buyer"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestProfileService_UpdateBuyerProfile(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()
	buyer := newTestUser(t, "bea@example.com", "bea", identity.RoleBuyer)
	profile, err := identity.NewBuyerProfile(buyer.ID, "Bea", "", "")
	require.NoError(t, err)

	f.users.On("FindByID", ctx, buyer.ID).Return(buyer, nil)
	f.buyers.On("FindByUserID", ctx, buyer.ID).Return(profile, nil)
	f.buyers.On("Save", ctx, profile).Return(nil)

	updated, err := f.profiles.UpdateBuyerProfile(ctx, buyer.ID, UpdateBuyerProfileInput{
		FullName: "Bea Buyer", Phone: "+44 20 7946 0000", ShippingAddress: "2 High St",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bea Buyer", updated.FullName)
	assert.Equal(t, "2 High St", updated.ShippingAddress)
	f.buyers.AssertExpectations(t)
}

func TestProfileService_IsApprovedSeller(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()
	missing := uuid.New()
	f.sellers.On("FindByUserID", ctx, missing).Return(nil, shared.ErrNotFound)

	ok, err := f.profiles.IsApprovedSeller(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)

	sellerID := uuid.New()
	profile, err := identity.NewSellerProfile(sellerID, "Shop", "", "", "")
	require.NoError(t, err)
	require.NoError(t, profile.Approve(uuid.New(), time.Now()))
	f.sellers.On("FindByUserID", ctx, sellerID).Return(profile, nil)

	ok, err = f.profiles.IsApprovedSeller(ctx, sellerID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdminService_SuspendUser(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()

	t.Run("cannot suspend self", func(t *testing.T) {
		f := newProfileFixture()
		_, err := f.admin.SuspendUser(ctx, adminID, adminID, "oops")
		assert.Equal(t, "CANNOT_SUSPEND_SELF", domainCode(t, err))
	})

	t.Run("suspends and ends sessions", func(t *testing.T) {
		f := newProfileFixture()
		events := &recordingPublisher{}
		f.admin.SetEventPublisher(events)
		user := newTestUser(t, "bad@example.com", "bad", identity.RoleBuyer)
		f.users.On("FindByID", ctx, user.ID).Return(user, nil)
		f.users.On("Update", ctx, user).Return(nil)

		info, err := f.admin.SuspendUser(ctx, adminID, user.ID, "chargebacks")
		require.NoError(t, err)
		assert.Equal(t, "suspended", info.Status)
		assert.Equal(t, []string{identity.EventTypeUserStatusChanged}, events.types)

		invalid, err := f.tokens.UserSessionRevoked(ctx, user.ID.String(), time.Now().Add(-time.Minute))
		require.NoError(t, err)
		assert.True(t, invalid)

		reactivated, err := f.admin.ReactivateUser(ctx, adminID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "pending", reactivated.Status)
	})
}

func TestAdminService_SellerApproval(t *testing.T) {
	ctx := context.Background()
	adminID := uuid.New()
	f := newProfileFixture()

	buyer := newTestUser(t, "b@example.com", "bob", identity.RoleBuyer)
	f.users.On("FindByID", ctx, buyer.ID).Return(buyer, nil)
	_, err := f.admin.ApproveSeller(ctx, adminID, buyer.ID)
	assert.Equal(t, "NOT_A_SELLER", domainCode(t, err))

	seller := newTestUser(t, "s@example.com", "sue", identity.RoleSeller)
	profile, err := identity.NewSellerProfile(seller.ID, "Sue's", "", "", "")
	require.NoError(t, err)
	f.users.On("FindByID", ctx, seller.ID).Return(seller, nil)
	f.sellers.On("FindByUserID", ctx, seller.ID).Return(profile, nil)
	f.sellers.On("Save", ctx, profile).Return(nil)

	approved, err := f.admin.ApproveSeller(ctx, adminID, seller.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)
	assert.Equal(t, adminID, *profile.ApprovedBy)

	_, err = f.admin.ApproveSeller(ctx, adminID, seller.ID)
	assert.Equal(t, "ALREADY_APPROVED", domainCode(t, err))

	revoked, err := f.admin.RevokeSeller(ctx, adminID, seller.ID)
	require.NoError(t, err)
	assert.False(t, revoked.Approved)
}

func TestAdminService_ListUsers(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()
	u := newTestUser(t, "x@example.com", "xavier", identity.RoleSeller)

	f.users.On("FindAll", ctx, mock.MatchedBy(func(filter identity.UserFilter) bool {
		return filter.Role != nil && *filter.Role == identity.RoleSeller && filter.Keyword == "xav" && filter.Page == 2
	})).Return([]*identity.User{u}, int64(21), nil)

	page, err := f.admin.ListUsers(ctx, ListUsersInput{Keyword: "xav", Role: "seller", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(21), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "xavier", page.Items[0].Username)

	_, err = f.admin.ListUsers(ctx, ListUsersInput{Status: "zombie"})
	assert.Equal(t, "INVALID_INPUT", domainCode(t, err))
}

func TestAdminService_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture()
	fixed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	f.admin.now = func() time.Time { return fixed }

	f.users.On("CountByRole", ctx).Return(map[identity.Role]int64{
		identity.RoleBuyer: 10, identity.RoleSeller: 4, identity.RoleAdmin: 1,
	}, nil)
	f.sellers.On("CountPendingApproval", ctx).Return(int64(2), nil)
	f.products.On("CountByStatus", ctx).Return(map[auction.ProductStatus]int64{
		auction.ProductStatusActive: 7, auction.ProductStatusSold: 3,
	}, nil)
	f.bids.On("CountSince", ctx, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)).Return(int64(42), nil)

	stats, err := f.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(15), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.UsersByRole["seller"])
	assert.Equal(t, int64(2), stats.PendingSellers)
	assert.Equal(t, int64(7), stats.ActiveListings)
	assert.Equal(t, int64(3), stats.ProductsByStatus["sold"])
	assert.Equal(t, int64(42), stats.BidsToday)
}
