package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockSellerApprovals struct {
	mock.Mock
}

func (m *mockSellerApprovals) IsApprovedSeller(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func setupRouterWithJWT() (*gin.Engine, func(role string, verified bool, perms ...string) (string, uuid.UUID)) {
	jwtService := newTestJWTService()
	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService))
	issue := func(role string, verified bool, perms ...string) (string, uuid.UUID) {
		pair, input := newTestTokenPair(jwtService, role, verified, perms...)
		return pair.AccessToken, input.UserID
	}
	return router, issue
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func TestRequirePermission(t *testing.T) {
	router, issue := setupRouterWithJWT()
	router.POST("/products", RequirePermission(PermissionConfig{}, "product:create"), okHandler)
	router.POST("/moderate", RequirePermission(PermissionConfig{}, "product:moderate", "user:manage"), okHandler)

	seller, _ := issue("seller", true, "product:create", "product:update")
	admin, _ := issue("admin", true, "user:manage")

	t.Run("granted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/products", seller))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing permission", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/moderate", seller))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "ERR_FORBIDDEN", decodeError(t, rec).Code)
	})

	t.Run("any of", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/moderate", admin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequirePermission_WithoutAuth(t *testing.T) {
	router := gin.New()
	router.GET("/products", RequirePermission(PermissionConfig{}, "product:create"), okHandler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	router, issue := setupRouterWithJWT()
	router.GET("/buyer/bids", RequireRole(PermissionConfig{}, "buyer"), okHandler)
	router.GET("/admin/users", RequireRole(PermissionConfig{}, "admin"), okHandler)

	buyer, _ := issue("buyer", true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/buyer/bids", buyer))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/admin/users", buyer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_LogsDenial(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	router, issue := setupRouterWithJWT()
	router.GET("/admin/users", RequireRole(PermissionConfig{Logger: zap.New(core)}, "admin"), okHandler)

	seller, _ := issue("seller", true)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/admin/users", seller))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	entries := logs.FilterMessage("Role denied").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "seller", entries[0].ContextMap()["role"])
	}
}

func TestRequireVerified(t *testing.T) {
	router, issue := setupRouterWithJWT()
	router.POST("/bids", RequireVerified(PermissionConfig{}), okHandler)

	verified, _ := issue("buyer", true)
	pending, _ := issue("buyer", false)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/bids", verified))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/bids", pending))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "EMAIL_NOT_VERIFIED", decodeError(t, rec).Code)
}

func TestRequireApprovedSeller(t *testing.T) {
	router, issue := setupRouterWithJWT()
	approvals := new(mockSellerApprovals)
	router.POST("/seller/products", RequireApprovedSeller(approvals, PermissionConfig{}), okHandler)

	approved, approvedID := issue("seller", true)
	pending, pendingID := issue("seller", true)
	broken, brokenID := issue("seller", true)

	approvals.On("IsApprovedSeller", mock.Anything, approvedID).Return(true, nil)
	approvals.On("IsApprovedSeller", mock.Anything, pendingID).Return(false, nil)
	approvals.On("IsApprovedSeller", mock.Anything, brokenID).Return(false, errors.New("db down"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/seller/products", approved))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/seller/products", pending))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_APPROVED", decodeError(t, rec).Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/seller/products", broken))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	approvals.AssertExpectations(t)
}
