package auction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is an accepted offer in the bid ledger. Bids are immutable once stored.
type Bid struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	BidderID       uuid.UUID
	Amount         decimal.Decimal
	CommissionRate decimal.Decimal
	Commission     decimal.Decimal
	TotalPayable   decimal.Decimal
	PlacedAt       time.Time
}

// NewBid prices a bid with the listing's commission rate
func NewBid(productID, bidderID uuid.UUID, amount, commissionRate decimal.Decimal, placedAt time.Time) *Bid {
	amount = amount.Round(MoneyScale)
	return &Bid{
		ID:             uuid.New(),
		ProductID:      productID,
		BidderID:       bidderID,
		Amount:         amount,
		CommissionRate: commissionRate,
		Commission:     Commission(amount, commissionRate),
		TotalPayable:   TotalPayable(amount, commissionRate),
		PlacedAt:       placedAt,
	}
}

// BidStanding describes where a bidder stands on a product
type BidStanding string

const (
	StandingLeading   BidStanding = "leading"
	StandingOutbid    BidStanding = "outbid"
	StandingWon       BidStanding = "won"
	StandingLost      BidStanding = "lost"
	StandingCancelled BidStanding = "cancelled"
)

// StandingOf returns the standing of bidderID on the product
func StandingOf(p *Product, bidderID uuid.UUID) BidStanding {
	leading := p.CurrentBidderID != nil && *p.CurrentBidderID == bidderID
	switch p.Status {
	case ProductStatusSold:
		if p.WinnerID != nil && *p.WinnerID == bidderID {
			return StandingWon
		}
		return StandingLost
	case ProductStatusUnsold:
		return StandingLost
	case ProductStatusCancelled:
		return StandingCancelled
	}
	if leading {
		return StandingLeading
	}
	return StandingOutbid
}
