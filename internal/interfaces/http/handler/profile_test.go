package handler

import (
	"net/http"
	"testing"

	"github.com/bidhouse/backend/internal/application/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupProfileRouter(svc *MockProfileService, userID uuid.UUID, role string) *gin.Engine {
	h := NewProfileHandler(svc)
	router := gin.New()
	g := router.Group("/profile", asUser(userID, role))
	g.GET("", h.GetProfile)
	g.PUT("/buyer", h.UpdateBuyerProfile)
	g.PUT("/seller", h.UpdateSellerProfile)
	g.PUT("/admin", h.UpdateAdminProfile)
	return router
}

func TestProfileHandler_GetProfile(t *testing.T) {
	svc := new(MockProfileService)
	userID := uuid.New()
	router := setupProfileRouter(svc, userID, "seller")

	svc.On("GetMyProfile", mock.Anything, userID).Return(&identity.ProfileResult{
		User:   identity.UserInfo{ID: userID, Username: "bob", Role: "seller"},
		Seller: &identity.SellerProfile{StoreName: "Bob's Clocks"},
	}, nil)

	w := serve(router, jsonRequest(http.MethodGet, "/profile", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store_name":"Bob's Clocks"`)
	assert.NotContains(t, w.Body.String(), `"buyer"`)
}

func TestProfileHandler_UpdateBuyerProfile(t *testing.T) {
	svc := new(MockProfileService)
	userID := uuid.New()
	router := setupProfileRouter(svc, userID, "buyer")

	svc.On("UpdateBuyerProfile", mock.Anything, userID, identity.UpdateBuyerProfileInput{
		FullName:        "Alice Doe",
		Phone:           "+1-555-0100",
		ShippingAddress: "1 Main St",
	}).Return(&identity.BuyerProfile{FullName: "Alice Doe", Phone: "+1-555-0100", ShippingAddress: "1 Main St"}, nil)

	w := serve(router, jsonRequest(http.MethodPut, "/profile/buyer", gin.H{
		"full_name":        "Alice Doe",
		"phone":            "+1-555-0100",
		"shipping_address": "1 Main St",
	}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, jsonRequest(http.MethodPut, "/profile/buyer", gin.H{"phone": "+1-555-0100"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "full_name", decodeResponse(t, w).Error.Details[0].Field)
	svc.AssertExpectations(t)
}

func TestProfileHandler_RoleMismatch(t *testing.T) {
	svc := new(MockProfileService)
	userID := uuid.New()
	router := setupProfileRouter(svc, userID, "buyer")

	svc.On("UpdateSellerProfile", mock.Anything, userID, mock.Anything).
		Return(nil, shared.NewDomainError("FORBIDDEN", "Profile does not match your role"))
	svc.On("UpdateAdminProfile", mock.Anything, userID, mock.Anything).
		Return(nil, shared.NewDomainError("FORBIDDEN", "Profile does not match your role"))

	w := serve(router, jsonRequest(http.MethodPut, "/profile/seller", gin.H{"store_name": "Not Mine"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeResponse(t, w).Error.Code)

	w = serve(router, jsonRequest(http.MethodPut, "/profile/admin", gin.H{"full_name": "Alice Doe"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertExpectations(t)
}
