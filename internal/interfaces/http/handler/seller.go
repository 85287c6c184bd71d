package handler

import (
	"context"

	auctionapp "github.com/bidhouse/backend/internal/application/auction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SellerHandler serves an approved seller's own listings
type SellerHandler struct {
	BaseHandler
	listingService ListingService
}

// NewSellerHandler creates a new SellerHandler
func NewSellerHandler(listingService ListingService) *SellerHandler {
	return &SellerHandler{listingService: listingService}
}

// ListMine godoc
// @Summary      My listings
// @Description  All of the seller's listings including drafts
// @Tags         seller
// @Produce      json
// @Param        status query string false "Listing status" Enums(draft, active, sold, unsold, cancelled)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]auctionapp.ProductListItem,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products [get]
func (h *SellerHandler) ListMine(c *gin.Context) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var q ProductListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	result, err := h.listingService.ListMyProducts(c.Request.Context(), sellerID, q.toQuery())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// Create godoc
// @Summary      Create a listing
// @Description  The listing starts as a draft
// @Tags         seller
// @Accept       json
// @Produce      json
// @Param        request body ProductRequest true "Listing"
// @Success      201 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products [post]
func (h *SellerHandler) Create(c *gin.Context) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req ProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.listingService.CreateProduct(c.Request.Context(), sellerID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// Update godoc
// @Summary      Update a listing
// @Description  Only drafts, or active listings without bids, can be edited
// @Tags         seller
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body ProductRequest true "Listing"
// @Success      200 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products/{id} [put]
func (h *SellerHandler) Update(c *gin.Context) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.listingService.UpdateProduct(c.Request.Context(), sellerID, productID, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Delete godoc
// @Summary      Delete a listing
// @Description  Listings that received bids cannot be deleted
// @Tags         seller
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products/{id} [delete]
func (h *SellerHandler) Delete(c *gin.Context) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.listingService.DeleteProduct(c.Request.Context(), sellerID, productID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Publish godoc
// @Summary      Publish a draft
// @Description  Opens the auction for bids
// @Tags         seller
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products/{id}/publish [post]
func (h *SellerHandler) Publish(c *gin.Context) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.listingService.PublishProduct(c.Request.Context(), sellerID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Cancel godoc
// @Summary      Cancel a listing
// @Description  Withdraws a listing that has no bids
// @Tags         seller
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body CancelProductRequest false "Reason"
// @Success      200 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products/{id}/cancel [post]
func (h *SellerHandler) Cancel(c *gin.Context) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req CancelProductRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	product, err := h.listingService.CancelProduct(c.Request.Context(), sellerID, productID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// RequestImageUpload godoc
// @Summary      Presign an image upload
// @Description  Returns a URL the client PUTs the image to, then attaches by key
// @Tags         seller
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body ImageUploadRequest true "File"
// @Success      200 {object} dto.Response{data=auctionapp.ImageUploadResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products/{id}/images/upload-url [post]
func (h *SellerHandler) RequestImageUpload(c *gin.Context) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req ImageUploadRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.listingService.RequestImageUpload(c.Request.Context(), sellerID, productID, auctionapp.ImageUploadInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AttachImage godoc
// @Summary      Attach an uploaded image
// @Tags         seller
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body ImageKeyRequest true "Object key"
// @Success      200 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products/{id}/images [post]
func (h *SellerHandler) AttachImage(c *gin.Context) {
	h.imageKeyAction(c, h.listingService.AttachImage)
}

// RemoveImage godoc
// @Summary      Remove an image
// @Tags         seller
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body ImageKeyRequest true "Object key"
// @Success      200 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /seller/products/{id}/images [delete]
func (h *SellerHandler) RemoveImage(c *gin.Context) {
	h.imageKeyAction(c, h.listingService.RemoveImage)
}

func (h *SellerHandler) imageKeyAction(c *gin.Context, action func(ctx context.Context, sellerID, productID uuid.UUID, key string) (*auctionapp.ProductResponse, error)) {
	sellerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req ImageKeyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := action(c.Request.Context(), sellerID, productID, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}
