package handler

import (
	"context"

	auctionapp "github.com/bidhouse/backend/internal/application/auction"
	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingService is the part of auction.ListingService the HTTP layer calls
type ListingService interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, input auctionapp.ProductInput) (*auctionapp.ProductResponse, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input auctionapp.ProductInput) (*auctionapp.ProductResponse, error)
	PublishProduct(ctx context.Context, sellerID, productID uuid.UUID) (*auctionapp.ProductResponse, error)
	CancelProduct(ctx context.Context, sellerID, productID uuid.UUID, reason string) (*auctionapp.ProductResponse, error)
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	ModerateProduct(ctx context.Context, adminID, productID uuid.UUID, reason string) (*auctionapp.ProductResponse, error)
	RequestImageUpload(ctx context.Context, sellerID, productID uuid.UUID, input auctionapp.ImageUploadInput) (*auctionapp.ImageUploadResult, error)
	AttachImage(ctx context.Context, sellerID, productID uuid.UUID, key string) (*auctionapp.ProductResponse, error)
	RemoveImage(ctx context.Context, sellerID, productID uuid.UUID, key string) (*auctionapp.ProductResponse, error)
	ListProducts(ctx context.Context, query auctionapp.ProductQuery) (shared.Paginated[auctionapp.ProductListItem], error)
	ListMyProducts(ctx context.Context, sellerID uuid.UUID, query auctionapp.ProductQuery) (shared.Paginated[auctionapp.ProductListItem], error)
	GetProduct(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*auctionapp.ProductResponse, error)
}

// BiddingService is the part of auction.BiddingService the HTTP layer calls
type BiddingService interface {
	PlaceBid(ctx context.Context, input auctionapp.PlaceBidInput) (*auctionapp.PlaceBidResult, error)
	GetQuote(ctx context.Context, productID uuid.UUID, amount *decimal.Decimal) (*auction.Quote, error)
	ListProductBids(ctx context.Context, productID uuid.UUID, page, pageSize int) (shared.Paginated[auctionapp.BidResponse], error)
	ListMyBids(ctx context.Context, bidderID uuid.UUID, page, pageSize int) (shared.Paginated[auctionapp.MyBidResponse], error)
}

// ProductHandler serves the public catalog
type ProductHandler struct {
	BaseHandler
	listingService ListingService
	biddingService BiddingService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(listingService ListingService, biddingService BiddingService) *ProductHandler {
	return &ProductHandler{
		listingService: listingService,
		biddingService: biddingService,
	}
}

// List godoc
// @Summary      Browse listings
// @Description  Active auctions by default. Drafts are never listed publicly.
// @Tags         products
// @Produce      json
// @Param        status query string false "Listing status" Enums(active, sold, unsold, cancelled)
// @Param        category query string false "Category"
// @Param        search query string false "Search in title and description"
// @Param        seller_id query string false "Seller" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        sort_by query string false "Sort field" default(ends_at)
// @Param        sort_order query string false "Sort direction" Enums(asc, desc) default(asc)
// @Success      200 {object} dto.Response{data=[]auctionapp.ProductListItem,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q ProductListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	result, err := h.listingService.ListProducts(c.Request.Context(), q.toQuery())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// GetByID godoc
// @Summary      Get a listing
// @Description  Includes the bidding quote while the auction is open. Sellers can see their own drafts.
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=auctionapp.ProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.listingService.GetProduct(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Quote godoc
// @Summary      Bid quote
// @Description  Minimum next bid, suggested steps and the payable total for an amount
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        amount query string false "Amount to price" example(120.00)
// @Success      200 {object} dto.Response{data=auction.Quote}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/quote [get]
func (h *ProductHandler) Quote(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var amount *decimal.Decimal
	if raw := c.Query("amount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			h.BadRequest(c, "Invalid amount")
			return
		}
		amount = &d
	}

	quote, err := h.biddingService.GetQuote(c.Request.Context(), id, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quote)
}

// ListBids godoc
// @Summary      Bid history
// @Description  Bids on a listing, highest first
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]auctionapp.BidResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/bids [get]
func (h *ProductHandler) ListBids(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	page, size := pageParams(c)

	result, err := h.biddingService.ListProductBids(c.Request.Context(), id, page, size)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}
