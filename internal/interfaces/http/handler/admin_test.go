package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/bidhouse/backend/internal/application/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupAdminRouter(admin *MockAdminService, listing *MockListingService, adminID uuid.UUID) *gin.Engine {
	h := NewAdminHandler(admin, listing)
	router := gin.New()
	g := router.Group("/admin", asUser(adminID, "admin"))
	g.GET("/users", h.ListUsers)
	g.GET("/users/:id", h.GetUser)
	g.POST("/users/:id/suspend", h.SuspendUser)
	g.POST("/users/:id/reactivate", h.ReactivateUser)
	g.POST("/sellers/:id/approve", h.ApproveSeller)
	g.POST("/sellers/:id/revoke", h.RevokeSeller)
	g.POST("/products/:id/moderate", h.ModerateProduct)
	g.GET("/dashboard", h.Dashboard)
	return router
}

func TestAdminHandler_ListUsers(t *testing.T) {
	admin := new(MockAdminService)
	router := setupAdminRouter(admin, new(MockListingService), uuid.New())

	admin.On("ListUsers", mock.Anything, identity.ListUsersInput{
		Role:      "seller",
		Status:    "pending",
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}).Return(shared.NewPaginated([]identity.UserInfo{{ID: uuid.New(), Username: "bob", Role: "seller"}}, 1, 1, 20), nil)

	w := serve(router, jsonRequest(http.MethodGet, "/admin/users?role=seller&status=pending&sort_by=created_at&sort_order=desc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	w = serve(router, jsonRequest(http.MethodGet, "/admin/users?role=superuser", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	admin.AssertExpectations(t)
}

func TestAdminHandler_GetUser(t *testing.T) {
	admin := new(MockAdminService)
	router := setupAdminRouter(admin, new(MockListingService), uuid.New())
	userID := uuid.New()
	locked := time.Now().Add(10 * time.Minute)

	admin.On("GetUser", mock.Anything, userID).Return(&identity.UserDetail{
		UserInfo:       identity.UserInfo{ID: userID, Username: "eve", Role: "buyer", Status: "active"},
		FailedAttempts: 5,
		LockedUntil:    &locked,
	}, nil)

	w := serve(router, jsonRequest(http.MethodGet, "/admin/users/"+userID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"failed_attempts":5`)
}

func TestAdminHandler_SuspendAndReactivate(t *testing.T) {
	admin := new(MockAdminService)
	adminID := uuid.New()
	router := setupAdminRouter(admin, new(MockListingService), adminID)
	userID := uuid.New()

	admin.On("SuspendUser", mock.Anything, adminID, userID, "Repeated non-payment").
		Return(&identity.UserInfo{ID: userID, Status: "suspended"}, nil)
	admin.On("ReactivateUser", mock.Anything, adminID, userID).
		Return(nil, shared.NewDomainError("NOT_SUSPENDED", "User is not suspended"))

	w := serve(router, jsonRequest(http.MethodPost, "/admin/users/"+userID.String()+"/suspend", gin.H{"reason": "Repeated non-payment"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"suspended"`)

	w = serve(router, jsonRequest(http.MethodPost, "/admin/users/"+userID.String()+"/suspend", gin.H{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, jsonRequest(http.MethodPost, "/admin/users/"+userID.String()+"/reactivate", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOT_SUSPENDED", decodeResponse(t, w).Error.Code)
	admin.AssertExpectations(t)
}

func TestAdminHandler_SellerApproval(t *testing.T) {
	admin := new(MockAdminService)
	adminID := uuid.New()
	router := setupAdminRouter(admin, new(MockListingService), adminID)
	sellerID := uuid.New()
	buyerID := uuid.New()
	now := time.Now()

	admin.On("ApproveSeller", mock.Anything, adminID, sellerID).
		Return(&identity.SellerProfile{StoreName: "Bob's Clocks", Approved: true, ApprovedAt: &now}, nil)
	admin.On("ApproveSeller", mock.Anything, adminID, buyerID).
		Return(nil, shared.NewDomainError("NOT_A_SELLER", "User is not a seller"))
	admin.On("RevokeSeller", mock.Anything, adminID, sellerID).
		Return(&identity.SellerProfile{StoreName: "Bob's Clocks"}, nil)

	w := serve(router, jsonRequest(http.MethodPost, "/admin/sellers/"+sellerID.String()+"/approve", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"approved":true`)

	w = serve(router, jsonRequest(http.MethodPost, "/admin/sellers/"+buyerID.String()+"/approve", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(router, jsonRequest(http.MethodPost, "/admin/sellers/"+sellerID.String()+"/revoke", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"approved":false`)

	w = serve(router, jsonRequest(http.MethodPost, "/admin/sellers/nope/revoke", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	admin.AssertExpectations(t)
}

func TestAdminHandler_ModerateProduct(t *testing.T) {
	listing := new(MockListingService)
	adminID := uuid.New()
	router := setupAdminRouter(new(MockAdminService), listing, adminID)
	product := sampleProduct(uuid.New())
	product.Status = "cancelled"
	product.CancelReason = "Counterfeit goods"

	listing.On("ModerateProduct", mock.Anything, adminID, product.ID, "Counterfeit goods").Return(product, nil)

	w := serve(router, jsonRequest(http.MethodPost, "/admin/products/"+product.ID.String()+"/moderate", gin.H{"reason": "Counterfeit goods"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancel_reason":"Counterfeit goods"`)

	w = serve(router, jsonRequest(http.MethodPost, "/admin/products/"+product.ID.String()+"/moderate", gin.H{"reason": "x"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	listing.AssertExpectations(t)
}

func TestAdminHandler_Dashboard(t *testing.T) {
	admin := new(MockAdminService)
	router := setupAdminRouter(admin, new(MockListingService), uuid.New())

	admin.On("Dashboard", mock.Anything).Return(&identity.DashboardStats{
		UsersByRole:      map[string]int64{"buyer": 40, "seller": 8, "admin": 2},
		TotalUsers:       50,
		PendingSellers:   3,
		ProductsByStatus: map[string]int64{"active": 12},
		ActiveListings:   12,
		BidsToday:        97,
	}, nil)

	w := serve(router, jsonRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending_sellers":3`)
	assert.Contains(t, w.Body.String(), `"bids_today":97`)
}
