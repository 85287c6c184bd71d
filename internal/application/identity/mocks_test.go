package identity

import (
	"context"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User, profile identity.Profile) error {
	args := m.Called(ctx, user, profile)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context) (map[identity.Role]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[identity.Role]int64), args.Error(1)
}

type MockBuyerProfileRepository struct {
	mock.Mock
}

func (m *MockBuyerProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.BuyerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.BuyerProfile), args.Error(1)
}

func (m *MockBuyerProfileRepository) Save(ctx context.Context, profile *identity.BuyerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

type MockSellerProfileRepository struct {
	mock.Mock
}

func (m *MockSellerProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.SellerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.SellerProfile), args.Error(1)
}

func (m *MockSellerProfileRepository) Save(ctx context.Context, profile *identity.SellerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockSellerProfileRepository) CountPendingApproval(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockAdminProfileRepository struct {
	mock.Mock
}

func (m *MockAdminProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.AdminProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AdminProfile), args.Error(1)
}

func (m *MockAdminProfileRepository) Save(ctx context.Context, profile *identity.AdminProfile) error {
	return m.Called(ctx, profile).Error(0)
}

// recordingNotifier keeps the last code sent per email
type recordingNotifier struct {
	codes map[string]string
	err   error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: make(map[string]string)}
}

func (n *recordingNotifier) SendOTP(_ context.Context, email string, purpose identity.OTPPurpose, code string, _ time.Time) error {
	if n.err != nil {
		return n.err
	}
	n.codes[string(purpose)+":"+email] = code
	return nil
}

func (n *recordingNotifier) code(email string, purpose identity.OTPPurpose) string {
	return n.codes[string(purpose)+":"+email]
}

// recordingPublisher collects published event types
type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		p.types = append(p.types, e.EventType())
	}
	return nil
}

// MockProductRepository covers the auction counts used by the dashboard
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*auction.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auction.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter auction.ProductFilter) ([]*auction.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*auction.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Create(ctx context.Context, product *auction.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *auction.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) PlaceBid(ctx context.Context, product *auction.Product, bid *auction.Bid) error {
	return m.Called(ctx, product, bid).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) FindEndedActive(ctx context.Context, now time.Time, after *auction.SweepCursor, limit int) ([]*auction.Product, error) {
	args := m.Called(ctx, now, after, limit)
	return args.Get(0).([]*auction.Product), args.Error(1)
}

func (m *MockProductRepository) CountByStatus(ctx context.Context) (map[auction.ProductStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[auction.ProductStatus]int64), args.Error(1)
}

type MockBidRepository struct {
	mock.Mock
}

func (m *MockBidRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter auction.BidFilter) ([]*auction.Bid, int64, error) {
	args := m.Called(ctx, productID, filter)
	return args.Get(0).([]*auction.Bid), args.Get(1).(int64), args.Error(2)
}

func (m *MockBidRepository) FindByBidder(ctx context.Context, bidderID uuid.UUID, filter auction.BidFilter) ([]*auction.Bid, int64, error) {
	args := m.Called(ctx, bidderID, filter)
	return args.Get(0).([]*auction.Bid), args.Get(1).(int64), args.Error(2)
}

func (m *MockBidRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}
