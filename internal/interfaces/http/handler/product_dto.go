package handler

import (
	"time"

	auctionapp "github.com/bidhouse/backend/internal/application/auction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRequest is the seller-editable part of a listing
// @Description Request body for creating or updating a draft listing
type ProductRequest struct {
	Title            string           `json:"title" binding:"required,min=3,max=200" example:"Victorian oak writing desk"`
	Description      string           `json:"description" binding:"max=5000" example:"Solid oak, original brass handles"`
	Category         string           `json:"category" binding:"required,max=50" example:"furniture"`
	StartingPrice    decimal.Decimal  `json:"starting_price" binding:"dgt=0" swaggertype:"string" example:"100.00"`
	BidIntervalPrice decimal.Decimal  `json:"bid_interval_price" binding:"dgt=0" swaggertype:"string" example:"10.00"`
	CommissionRate   *decimal.Decimal `json:"commission_rate" binding:"omitempty,dgte=0,dlte=100" swaggertype:"string" example:"5"`
	StartsAt         *time.Time       `json:"starts_at" example:"2026-11-01T09:00:00Z"`
	EndsAt           time.Time        `json:"ends_at" binding:"required" example:"2026-11-08T09:00:00Z"`
}

func (r ProductRequest) toInput() auctionapp.ProductInput {
	return auctionapp.ProductInput{
		Title:            r.Title,
		Description:      r.Description,
		Category:         r.Category,
		StartingPrice:    r.StartingPrice,
		BidIntervalPrice: r.BidIntervalPrice,
		CommissionRate:   r.CommissionRate,
		StartsAt:         r.StartsAt,
		EndsAt:           r.EndsAt,
	}
}

// ProductListQuery filters the catalog
type ProductListQuery struct {
	Status    string `form:"status" binding:"omitempty,oneof=draft active sold unsold cancelled"`
	Category  string `form:"category" binding:"max=50"`
	Search    string `form:"search" binding:"max=100"`
	SellerID  string `form:"seller_id" binding:"omitempty,uuid"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=ends_at created_at current_bid_price starting_price bid_count title"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

func (q ProductListQuery) toQuery() auctionapp.ProductQuery {
	query := auctionapp.ProductQuery{
		Status:    q.Status,
		Category:  q.Category,
		Search:    q.Search,
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	if id, err := uuid.Parse(q.SellerID); err == nil {
		query.SellerID = &id
	}
	return query
}

// CancelProductRequest carries an optional reason
type CancelProductRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Item no longer available"`
}

// ModerateProductRequest requires a reason shown to the seller
type ModerateProductRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500" example:"Prohibited item"`
}

// ImageUploadRequest asks for a presigned PUT URL
type ImageUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=200" example:"desk-front.jpg"`
	ContentType string `json:"content_type" binding:"required,max=100" example:"image/jpeg"`
}

// ImageKeyRequest names an uploaded object
type ImageKeyRequest struct {
	Key string `json:"key" binding:"required,max=500" example:"products/6f1c.../images/desk-front.jpg"`
}

// PlaceBidRequest is a buyer's offer
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"dgt=0" swaggertype:"string" example:"110.00"`
}
