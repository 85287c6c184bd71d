package auction

import (
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeProduct = "Product"

// Product domain event types
const (
	EventTypeProductCreated   = "ProductCreated"
	EventTypeProductPublished = "ProductPublished"
	EventTypeProductCancelled = "ProductCancelled"
	EventTypeBidPlaced        = "BidPlaced"
	EventTypeOutbid           = "Outbid"
	EventTypeAuctionClosed    = "AuctionClosed"
)

type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	SellerID uuid.UUID `json:"seller_id"`
	Title    string    `json:"title"`
}

func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID),
		SellerID:        p.SellerID,
		Title:           p.Title,
	}
}

type ProductPublishedEvent struct {
	shared.BaseDomainEvent
	SellerID uuid.UUID `json:"seller_id"`
}

func NewProductPublishedEvent(p *Product) *ProductPublishedEvent {
	return &ProductPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductPublished, AggregateTypeProduct, p.ID),
		SellerID:        p.SellerID,
	}
}

type ProductCancelledEvent struct {
	shared.BaseDomainEvent
	SellerID uuid.UUID `json:"seller_id"`
	Reason   string    `json:"reason,omitempty"`
}

func NewProductCancelledEvent(p *Product) *ProductCancelledEvent {
	return &ProductCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCancelled, AggregateTypeProduct, p.ID),
		SellerID:        p.SellerID,
		Reason:          p.CancelReason,
	}
}

// BidPlacedEvent is raised for every accepted bid
type BidPlacedEvent struct {
	shared.BaseDomainEvent
	BidID        uuid.UUID       `json:"bid_id"`
	BidderID     uuid.UUID       `json:"bidder_id"`
	SellerID     uuid.UUID       `json:"seller_id"`
	Amount       decimal.Decimal `json:"amount"`
	TotalPayable decimal.Decimal `json:"total_payable"`
	BidCount     int             `json:"bid_count"`
}

func NewBidPlacedEvent(p *Product, bid *Bid) *BidPlacedEvent {
	return &BidPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBidPlaced, AggregateTypeProduct, p.ID),
		BidID:           bid.ID,
		BidderID:        bid.BidderID,
		SellerID:        p.SellerID,
		Amount:          bid.Amount,
		TotalPayable:    bid.TotalPayable,
		BidCount:        p.BidCount,
	}
}

// OutbidEvent tells the previous leader somebody bid higher
type OutbidEvent struct {
	shared.BaseDomainEvent
	PreviousBidderID uuid.UUID       `json:"previous_bidder_id"`
	PreviousAmount   decimal.Decimal `json:"previous_amount"`
	NewAmount        decimal.Decimal `json:"new_amount"`
}

func NewOutbidEvent(p *Product, previousBidder uuid.UUID, previousAmount, newAmount decimal.Decimal) *OutbidEvent {
	return &OutbidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOutbid, AggregateTypeProduct, p.ID),
		PreviousBidderID: previousBidder,
		PreviousAmount:   previousAmount,
		NewAmount:        newAmount,
	}
}

// AuctionClosedEvent is raised when an auction is settled
type AuctionClosedEvent struct {
	shared.BaseDomainEvent
	SellerID   uuid.UUID       `json:"seller_id"`
	Status     ProductStatus   `json:"status"`
	WinnerID   *uuid.UUID      `json:"winner_id,omitempty"`
	FinalPrice decimal.Decimal `json:"final_price"`
	Commission decimal.Decimal `json:"commission"`
	BidCount   int             `json:"bid_count"`
}

func NewAuctionClosedEvent(p *Product) *AuctionClosedEvent {
	return &AuctionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAuctionClosed, AggregateTypeProduct, p.ID),
		SellerID:        p.SellerID,
		Status:          p.Status,
		WinnerID:        p.WinnerID,
		FinalPrice:      p.FinalPrice,
		Commission:      Commission(p.FinalPrice, p.CommissionRate),
		BidCount:        p.BidCount,
	}
}
