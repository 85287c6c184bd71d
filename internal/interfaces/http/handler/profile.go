package handler

import (
	"context"

	"github.com/bidhouse/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProfileService is the part of identity.ProfileService the HTTP layer calls
type ProfileService interface {
	GetMyProfile(ctx context.Context, userID uuid.UUID) (*identity.ProfileResult, error)
	UpdateBuyerProfile(ctx context.Context, userID uuid.UUID, input identity.UpdateBuyerProfileInput) (*identity.BuyerProfile, error)
	UpdateSellerProfile(ctx context.Context, userID uuid.UUID, input identity.UpdateSellerProfileInput) (*identity.SellerProfile, error)
	UpdateAdminProfile(ctx context.Context, userID uuid.UUID, input identity.UpdateAdminProfileInput) (*identity.AdminProfile, error)
}

// UpdateBuyerProfileRequest replaces the buyer profile fields
type UpdateBuyerProfileRequest struct {
	FullName        string `json:"full_name" binding:"required,max=100" example:"Alice Doe"`
	Phone           string `json:"phone" binding:"max=30" example:"+1-555-0100"`
	ShippingAddress string `json:"shipping_address" binding:"max=500" example:"1 Main St, Springfield"`
}

// UpdateSellerProfileRequest replaces the seller profile fields
type UpdateSellerProfileRequest struct {
	StoreName     string `json:"store_name" binding:"required,max=100" example:"Alice Antiques"`
	Description   string `json:"description" binding:"max=2000"`
	Phone         string `json:"phone" binding:"max=30"`
	PickupAddress string `json:"pickup_address" binding:"max=500"`
}

// UpdateAdminProfileRequest replaces the admin profile fields
type UpdateAdminProfileRequest struct {
	FullName   string `json:"full_name" binding:"required,max=100"`
	Department string `json:"department" binding:"max=100" example:"Trust & Safety"`
}

// ProfileHandler serves the caller's own profile
type ProfileHandler struct {
	BaseHandler
	profileService ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile godoc
// @Summary      Get my profile
// @Description  The account plus the profile of its role
// @Tags         profile
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.ProfileResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetMyProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, profile)
}

// UpdateBuyerProfile godoc
// @Summary      Update buyer profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body UpdateBuyerProfileRequest true "Buyer profile"
// @Success      200 {object} dto.Response{data=identity.BuyerProfile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/buyer [put]
func (h *ProfileHandler) UpdateBuyerProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req UpdateBuyerProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.UpdateBuyerProfile(c.Request.Context(), userID, identity.UpdateBuyerProfileInput{
		FullName:        req.FullName,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, profile)
}

// UpdateSellerProfile godoc
// @Summary      Update seller profile
// @Description  Editing the store does not change its approval
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body UpdateSellerProfileRequest true "Seller profile"
// @Success      200 {object} dto.Response{data=identity.SellerProfile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/seller [put]
func (h *ProfileHandler) UpdateSellerProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req UpdateSellerProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.UpdateSellerProfile(c.Request.Context(), userID, identity.UpdateSellerProfileInput{
		StoreName:     req.StoreName,
		Description:   req.Description,
		Phone:         req.Phone,
		PickupAddress: req.PickupAddress,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, profile)
}

// UpdateAdminProfile godoc
// @Summary      Update admin profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        request body UpdateAdminProfileRequest true "Admin profile"
// @Success      200 {object} dto.Response{data=identity.AdminProfile}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /profile/admin [put]
func (h *ProfileHandler) UpdateAdminProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req UpdateAdminProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.UpdateAdminProfile(c.Request.Context(), userID, identity.UpdateAdminProfileInput{
		FullName:   req.FullName,
		Department: req.Department,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, profile)
}
