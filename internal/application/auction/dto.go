package auction

import (
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput carries the seller-editable listing fields
type ProductInput struct {
	Title            string
	Description      string
	Category         string
	StartingPrice    decimal.Decimal
	BidIntervalPrice decimal.Decimal
	// Nil uses the configured default rate
	CommissionRate *decimal.Decimal
	StartsAt       *time.Time
	EndsAt         time.Time
}

func (in ProductInput) details() auction.ProductDetails {
	d := auction.ProductDetails{
		Title:            in.Title,
		Description:      in.Description,
		Category:         in.Category,
		StartingPrice:    in.StartingPrice,
		BidIntervalPrice: in.BidIntervalPrice,
		CommissionRate:   in.CommissionRate,
		EndsAt:           in.EndsAt,
	}
	if in.StartsAt != nil {
		d.StartsAt = *in.StartsAt
	}
	return d
}

// ProductQuery filters catalog listings
type ProductQuery struct {
	Status    string
	Category  string
	Search    string
	SellerID  *uuid.UUID
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ImageUploadInput requests a presigned upload URL
type ImageUploadInput struct {
	Filename    string
	ContentType string
}

// ImageUploadResult is what the client needs to PUT the image
type ImageUploadResult struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImageResponse is an attached image with a time-limited download URL
type ImageResponse struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// ProductResponse is the full listing view
type ProductResponse struct {
	ID               uuid.UUID         `json:"id"`
	SellerID         uuid.UUID         `json:"seller_id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Category         string            `json:"category"`
	Images           []ImageResponse   `json:"images"`
	StartingPrice    decimal.Decimal   `json:"starting_price"`
	BidIntervalPrice decimal.Decimal   `json:"bid_interval_price"`
	CurrentBidPrice  *decimal.Decimal  `json:"current_bid_price,omitempty"`
	CurrentBidderID  *uuid.UUID        `json:"current_bidder_id,omitempty"`
	BidCount         int               `json:"bid_count"`
	CommissionRate   decimal.Decimal   `json:"commission_rate"`
	StartsAt         time.Time         `json:"starts_at"`
	EndsAt           time.Time         `json:"ends_at"`
	Status           string            `json:"status"`
	WinnerID         *uuid.UUID        `json:"winner_id,omitempty"`
	FinalPrice       *decimal.Decimal  `json:"final_price,omitempty"`
	ClosedAt         *time.Time        `json:"closed_at,omitempty"`
	CancelReason     string            `json:"cancel_reason,omitempty"`
	Quote            *auction.Quote    `json:"quote,omitempty"`
	Countdown        auction.Countdown `json:"countdown"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	Version          int               `json:"version"`
}

// ProductListItem is the catalog row view
type ProductListItem struct {
	ID              uuid.UUID         `json:"id"`
	SellerID        uuid.UUID         `json:"seller_id"`
	Title           string            `json:"title"`
	Category        string            `json:"category"`
	CoverImageKey   string            `json:"cover_image_key,omitempty"`
	StartingPrice   decimal.Decimal   `json:"starting_price"`
	CurrentBidPrice *decimal.Decimal  `json:"current_bid_price,omitempty"`
	MinimumNextBid  decimal.Decimal   `json:"minimum_next_bid"`
	BidCount        int               `json:"bid_count"`
	Status          string            `json:"status"`
	EndsAt          time.Time         `json:"ends_at"`
	Countdown       auction.Countdown `json:"countdown"`
}

func toProductResponse(p *auction.Product, now time.Time) ProductResponse {
	r := ProductResponse{
		ID:               p.ID,
		SellerID:         p.SellerID,
		Title:            p.Title,
		Description:      p.Description,
		Category:         p.Category,
		Images:           make([]ImageResponse, 0, len(p.ImageKeys)),
		StartingPrice:    p.StartingPrice,
		BidIntervalPrice: p.BidIntervalPrice,
		CurrentBidderID:  p.CurrentBidderID,
		BidCount:         p.BidCount,
		CommissionRate:   p.CommissionRate,
		StartsAt:         p.StartsAt,
		EndsAt:           p.EndsAt,
		Status:           string(p.Status),
		WinnerID:         p.WinnerID,
		ClosedAt:         p.ClosedAt,
		CancelReason:     p.CancelReason,
		Countdown:        p.Countdown(now),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Version:          p.Version,
	}
	if p.HasBids() {
		price := p.CurrentBidPrice
		r.CurrentBidPrice = &price
	}
	if p.Status == auction.ProductStatusSold {
		final := p.FinalPrice
		r.FinalPrice = &final
	}
	for _, k := range p.ImageKeys {
		r.Images = append(r.Images, ImageResponse{Key: k})
	}
	return r
}

func toProductListItem(p *auction.Product, now time.Time) ProductListItem {
	item := ProductListItem{
		ID:             p.ID,
		SellerID:       p.SellerID,
		Title:          p.Title,
		Category:       p.Category,
		StartingPrice:  p.StartingPrice,
		MinimumNextBid: p.MinimumNextBid(),
		BidCount:       p.BidCount,
		Status:         string(p.Status),
		EndsAt:         p.EndsAt,
		Countdown:      p.Countdown(now),
	}
	if len(p.ImageKeys) > 0 {
		item.CoverImageKey = p.ImageKeys[0]
	}
	if p.HasBids() {
		price := p.CurrentBidPrice
		item.CurrentBidPrice = &price
	}
	return item
}

// PlaceBidInput is a buyer's offer
type PlaceBidInput struct {
	ProductID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
}

// BidResponse is one entry of the bid ledger
type BidResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	BidderID       uuid.UUID       `json:"bidder_id"`
	Amount         decimal.Decimal `json:"amount"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Commission     decimal.Decimal `json:"commission"`
	TotalPayable   decimal.Decimal `json:"total_payable"`
	PlacedAt       time.Time       `json:"placed_at"`
}

func toBidResponse(b *auction.Bid) BidResponse {
	return BidResponse{
		ID:             b.ID,
		ProductID:      b.ProductID,
		BidderID:       b.BidderID,
		Amount:         b.Amount,
		CommissionRate: b.CommissionRate,
		Commission:     b.Commission,
		TotalPayable:   b.TotalPayable,
		PlacedAt:       b.PlacedAt,
	}
}

// PlaceBidResult is the accepted bid plus the listing state it produced
type PlaceBidResult struct {
	Bid            BidResponse       `json:"bid"`
	BidCount       int               `json:"bid_count"`
	MinimumNextBid decimal.Decimal   `json:"minimum_next_bid"`
	Countdown      auction.Countdown `json:"countdown"`
	Version        int               `json:"version"`
}

// MyBidResponse is a bid from the buyer's history with the listing's current state
type MyBidResponse struct {
	BidResponse
	ProductTitle    string              `json:"product_title"`
	ProductStatus   string              `json:"product_status"`
	CurrentBidPrice decimal.Decimal     `json:"current_bid_price"`
	EndsAt          time.Time           `json:"ends_at"`
	Standing        auction.BidStanding `json:"standing"`
}
