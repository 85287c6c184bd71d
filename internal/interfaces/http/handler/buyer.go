package handler

import (
	auctionapp "github.com/bidhouse/backend/internal/application/auction"
	"github.com/gin-gonic/gin"
)

// BuyerHandler serves bidding for verified buyers
type BuyerHandler struct {
	BaseHandler
	biddingService BiddingService
}

// NewBuyerHandler creates a new BuyerHandler
func NewBuyerHandler(biddingService BiddingService) *BuyerHandler {
	return &BuyerHandler{biddingService: biddingService}
}

// PlaceBid godoc
// @Summary      Place a bid
// @Description  The amount must reach the minimum next bid. The current leader cannot bid again.
// @Tags         buyer
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body PlaceBidRequest true "Offer"
// @Success      201 {object} dto.Response{data=auctionapp.PlaceBidResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /buyer/products/{id}/bids [post]
func (h *BuyerHandler) PlaceBid(c *gin.Context) {
	bidderID, ok := h.currentUser(c)
	if !ok {
		return
	}
	productID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req PlaceBidRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.biddingService.PlaceBid(c.Request.Context(), auctionapp.PlaceBidInput{
		ProductID: productID,
		BidderID:  bidderID,
		Amount:    req.Amount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListMyBids godoc
// @Summary      My bids
// @Description  Every bid the buyer placed with the listing's current standing
// @Tags         buyer
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]auctionapp.MyBidResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /buyer/bids [get]
func (h *BuyerHandler) ListMyBids(c *gin.Context) {
	bidderID, ok := h.currentUser(c)
	if !ok {
		return
	}
	page, size := pageParams(c)

	result, err := h.biddingService.ListMyBids(c.Request.Context(), bidderID, page, size)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}
