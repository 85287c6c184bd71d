package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	auctionapp "github.com/bidhouse/backend/internal/application/auction"
	"github.com/bidhouse/backend/internal/application/identity"
	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/bidhouse/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	middleware.SetupValidator()
}

// MockAuthService implements AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input identity.RegisterInput) (*identity.RegisterResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.RegisterResult), args.Error(1)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, input identity.VerifyEmailInput) (*identity.UserInfo, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserInfo), args.Error(1)
}

func (m *MockAuthService) ResendOTP(ctx context.Context, input identity.ResendOTPInput) (*identity.OTPIssued, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.OTPIssued), args.Error(1)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) (*identity.OTPIssued, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.OTPIssued), args.Error(1)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, input identity.ResetPasswordInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, input identity.RefreshTokenInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, input identity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, input identity.ChangePasswordInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*identity.UserInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserInfo), args.Error(1)
}

// MockProfileService implements ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetMyProfile(ctx context.Context, userID uuid.UUID) (*identity.ProfileResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.ProfileResult), args.Error(1)
}

func (m *MockProfileService) UpdateBuyerProfile(ctx context.Context, userID uuid.UUID, input identity.UpdateBuyerProfileInput) (*identity.BuyerProfile, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.BuyerProfile), args.Error(1)
}

func (m *MockProfileService) UpdateSellerProfile(ctx context.Context, userID uuid.UUID, input identity.UpdateSellerProfileInput) (*identity.SellerProfile, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.SellerProfile), args.Error(1)
}

func (m *MockProfileService) UpdateAdminProfile(ctx context.Context, userID uuid.UUID, input identity.UpdateAdminProfileInput) (*identity.AdminProfile, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AdminProfile), args.Error(1)
}

// MockListingService implements ListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) product(args mock.Arguments) (*auctionapp.ProductResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auctionapp.ProductResponse), args.Error(1)
}

func (m *MockListingService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input auctionapp.ProductInput) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, sellerID, input))
}

func (m *MockListingService) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input auctionapp.ProductInput) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, sellerID, productID, input))
}

func (m *MockListingService) PublishProduct(ctx context.Context, sellerID, productID uuid.UUID) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, sellerID, productID))
}

func (m *MockListingService) CancelProduct(ctx context.Context, sellerID, productID uuid.UUID, reason string) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, sellerID, productID, reason))
}

func (m *MockListingService) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	return m.Called(ctx, sellerID, productID).Error(0)
}

func (m *MockListingService) ModerateProduct(ctx context.Context, adminID, productID uuid.UUID, reason string) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, adminID, productID, reason))
}

func (m *MockListingService) RequestImageUpload(ctx context.Context, sellerID, productID uuid.UUID, input auctionapp.ImageUploadInput) (*auctionapp.ImageUploadResult, error) {
	args := m.Called(ctx, sellerID, productID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auctionapp.ImageUploadResult), args.Error(1)
}

func (m *MockListingService) AttachImage(ctx context.Context, sellerID, productID uuid.UUID, key string) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, sellerID, productID, key))
}

func (m *MockListingService) RemoveImage(ctx context.Context, sellerID, productID uuid.UUID, key string) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, sellerID, productID, key))
}

func (m *MockListingService) ListProducts(ctx context.Context, query auctionapp.ProductQuery) (shared.Paginated[auctionapp.ProductListItem], error) {
	args := m.Called(ctx, query)
	return args.Get(0).(shared.Paginated[auctionapp.ProductListItem]), args.Error(1)
}

func (m *MockListingService) ListMyProducts(ctx context.Context, sellerID uuid.UUID, query auctionapp.ProductQuery) (shared.Paginated[auctionapp.ProductListItem], error) {
	args := m.Called(ctx, sellerID, query)
	return args.Get(0).(shared.Paginated[auctionapp.ProductListItem]), args.Error(1)
}

func (m *MockListingService) GetProduct(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*auctionapp.ProductResponse, error) {
	return m.product(m.Called(ctx, productID, viewerID))
}

// MockBiddingService implements BiddingService
type MockBiddingService struct {
	mock.Mock
}

func (m *MockBiddingService) PlaceBid(ctx context.Context, input auctionapp.PlaceBidInput) (*auctionapp.PlaceBidResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auctionapp.PlaceBidResult), args.Error(1)
}

func (m *MockBiddingService) GetQuote(ctx context.Context, productID uuid.UUID, amount *decimal.Decimal) (*auction.Quote, error) {
	args := m.Called(ctx, productID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auction.Quote), args.Error(1)
}

func (m *MockBiddingService) ListProductBids(ctx context.Context, productID uuid.UUID, page, pageSize int) (shared.Paginated[auctionapp.BidResponse], error) {
	args := m.Called(ctx, productID, page, pageSize)
	return args.Get(0).(shared.Paginated[auctionapp.BidResponse]), args.Error(1)
}

func (m *MockBiddingService) ListMyBids(ctx context.Context, bidderID uuid.UUID, page, pageSize int) (shared.Paginated[auctionapp.MyBidResponse], error) {
	args := m.Called(ctx, bidderID, page, pageSize)
	return args.Get(0).(shared.Paginated[auctionapp.MyBidResponse]), args.Error(1)
}

// MockAdminService implements AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListUsers(ctx context.Context, input identity.ListUsersInput) (shared.Paginated[identity.UserInfo], error) {
	args := m.Called(ctx, input)
	return args.Get(0).(shared.Paginated[identity.UserInfo]), args.Error(1)
}

func (m *MockAdminService) GetUser(ctx context.Context, id uuid.UUID) (*identity.UserDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserDetail), args.Error(1)
}

func (m *MockAdminService) SuspendUser(ctx context.Context, adminID, userID uuid.UUID, reason string) (*identity.UserInfo, error) {
	args := m.Called(ctx, adminID, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserInfo), args.Error(1)
}

func (m *MockAdminService) ReactivateUser(ctx context.Context, adminID, userID uuid.UUID) (*identity.UserInfo, error) {
	args := m.Called(ctx, adminID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserInfo), args.Error(1)
}

func (m *MockAdminService) ApproveSeller(ctx context.Context, adminID, userID uuid.UUID) (*identity.SellerProfile, error) {
	args := m.Called(ctx, adminID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.SellerProfile), args.Error(1)
}

func (m *MockAdminService) RevokeSeller(ctx context.Context, adminID, userID uuid.UUID) (*identity.SellerProfile, error) {
	args := m.Called(ctx, adminID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.SellerProfile), args.Error(1)
}

func (m *MockAdminService) Dashboard(ctx context.Context) (*identity.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.DashboardStats), args.Error(1)
}

// asUser installs a fake authenticated caller ahead of the handler
func asUser(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		setJWTContext(c, userID, role)
		c.Next()
	}
}

func jsonRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
