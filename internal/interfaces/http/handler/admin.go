package handler

import (
	"context"

	"github.com/bidhouse/backend/internal/application/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminService is the part of identity.AdminService the HTTP layer calls
type AdminService interface {
	ListUsers(ctx context.Context, input identity.ListUsersInput) (shared.Paginated[identity.UserInfo], error)
	GetUser(ctx context.Context, id uuid.UUID) (*identity.UserDetail, error)
	SuspendUser(ctx context.Context, adminID, userID uuid.UUID, reason string) (*identity.UserInfo, error)
	ReactivateUser(ctx context.Context, adminID, userID uuid.UUID) (*identity.UserInfo, error)
	ApproveSeller(ctx context.Context, adminID, userID uuid.UUID) (*identity.SellerProfile, error)
	RevokeSeller(ctx context.Context, adminID, userID uuid.UUID) (*identity.SellerProfile, error)
	Dashboard(ctx context.Context) (*identity.DashboardStats, error)
}

// UserListQuery filters the admin user list
type UserListQuery struct {
	Keyword   string `form:"keyword" binding:"max=100"`
	Role      string `form:"role" binding:"omitempty,oneof=buyer seller admin"`
	Status    string `form:"status" binding:"omitempty,oneof=pending active suspended"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at username email role status last_login_at"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// SuspendUserRequest requires the reason recorded on the account
type SuspendUserRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500" example:"Non-payment on three won auctions"`
}

// AdminHandler serves user moderation, seller approval and listing moderation
type AdminHandler struct {
	BaseHandler
	adminService   AdminService
	listingService ListingService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService AdminService, listingService ListingService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		listingService: listingService,
	}
}

// ListUsers godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        keyword query string false "Email or username"
// @Param        role query string false "Role" Enums(buyer, seller, admin)
// @Param        status query string false "Status" Enums(pending, active, suspended)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]identity.UserInfo,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q UserListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}

	result, err := h.adminService.ListUsers(c.Request.Context(), identity.ListUsersInput{
		Keyword:   q.Keyword,
		Role:      q.Role,
		Status:    q.Status,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// GetUser godoc
// @Summary      Get a user
// @Description  Account detail with lockout state and role profile
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDetail}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// SuspendUser godoc
// @Summary      Suspend a user
// @Description  Blocks login and revokes every session of the account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body SuspendUserRequest true "Reason"
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/suspend [post]
func (h *AdminHandler) SuspendUser(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req SuspendUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.SuspendUser(c.Request.Context(), adminID, userID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ReactivateUser godoc
// @Summary      Reactivate a user
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/reactivate [post]
func (h *AdminHandler) ReactivateUser(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.ReactivateUser(c.Request.Context(), adminID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// ApproveSeller godoc
// @Summary      Approve a seller
// @Description  Lets the seller create and publish listings
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.SellerProfile}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/sellers/{id}/approve [post]
func (h *AdminHandler) ApproveSeller(c *gin.Context) {
	h.sellerAction(c, h.adminService.ApproveSeller)
}

// RevokeSeller godoc
// @Summary      Revoke seller approval
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.SellerProfile}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/sellers/{id}/revoke [post]
func (h *AdminHandler) RevokeSeller(c *gin.Context) {
	h.sellerAction(c, h.adminService.RevokeSeller)
}

func (h *AdminHandler) sellerAction(c *gin.Context, action func(ctx context.Context, adminID, userID uuid.UUID) (*identity.SellerProfile, error)) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := action(c.Request.Context(), adminID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, profile)
}

// ModerateProduct godoc
// @Summary      Take down a listing
// @Description  Cancels the listing with a moderation reason, whatever its bids
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body ModerateProductRequest true "Reason"
// @Success      200 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/products/{id}/moderate [post]
func (h *AdminHandler) ModerateProduct(c *gin.Context) {
	adminID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req ModerateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.listingService.ModerateProduct(c.Request.Context(), adminID, productID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Dashboard godoc
// @Summary      Marketplace dashboard
// @Description  User, seller and listing counts
// @Tags         admin
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.DashboardStats}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}
