package auction

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// ProductStatus is the lifecycle state of a listing
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusActive    ProductStatus = "active"
	ProductStatusSold      ProductStatus = "sold"
	ProductStatusUnsold    ProductStatus = "unsold"
	ProductStatusCancelled ProductStatus = "cancelled"
)

// IsValid reports whether s is a known status
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusSold, ProductStatusUnsold, ProductStatusCancelled:
		return true
	}
	return false
}

// IsClosed reports whether the auction has finished one way or another
func (s ProductStatus) IsClosed() bool {
	return s == ProductStatusSold || s == ProductStatusUnsold || s == ProductStatusCancelled
}

// MaxProductImages caps the number of images on a listing
const MaxProductImages = 8

// Listing and bidding errors
var (
	ErrAuctionNotActive  = shared.NewDomainError("AUCTION_NOT_ACTIVE", "Auction is not accepting bids")
	ErrAuctionNotStarted = shared.NewDomainError("AUCTION_NOT_STARTED", "Auction has not started yet")
	ErrAuctionClosed     = shared.NewDomainError("AUCTION_CLOSED", "Auction has already ended")
	ErrAuctionRunning    = shared.NewDomainError("AUCTION_RUNNING", "Auction has not reached its end time")
	ErrSelfBid           = shared.NewDomainError("SELF_BID", "Sellers cannot bid on their own products")
	ErrAlreadyLeading    = shared.NewDomainError("ALREADY_LEADING", "You already hold the highest bid")
	ErrBidTooLow         = shared.NewDomainError("BID_TOO_LOW", "Bid is below the minimum next bid")
	ErrInvalidAmount     = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive with at most two decimal places")
	ErrHasBids           = shared.NewDomainError("PRODUCT_HAS_BIDS", "Product already has bids")
	ErrTooManyImages     = shared.NewDomainError("TOO_MANY_IMAGES", fmt.Sprintf("A product can have at most %d images", MaxProductImages))
)

// ListingPolicy bounds the auction window a seller may choose
type ListingPolicy struct {
	MinDuration           time.Duration
	MaxDuration           time.Duration
	DefaultCommissionRate decimal.Decimal
}

// ProductDetails are the seller-editable fields of a listing
type ProductDetails struct {
	Title            string
	Description      string
	Category         string
	StartingPrice    decimal.Decimal
	BidIntervalPrice decimal.Decimal
	// Nil means use the policy default; an explicit zero is kept
	CommissionRate *decimal.Decimal
	StartsAt       time.Time
	EndsAt         time.Time
}

// Product is a listing put up for auction by a seller
type Product struct {
	shared.BaseAggregateRoot
	SellerID         uuid.UUID
	Title            string
	Description      string
	Category         string
	ImageKeys        []string
	StartingPrice    decimal.Decimal
	BidIntervalPrice decimal.Decimal
	CurrentBidPrice  decimal.Decimal
	CurrentBidderID  *uuid.UUID
	BidCount         int
	CommissionRate   decimal.Decimal
	StartsAt         time.Time
	EndsAt           time.Time
	Status           ProductStatus
	WinnerID         *uuid.UUID
	FinalPrice       decimal.Decimal
	ClosedAt         *time.Time
	CancelReason     string
}

// NewProduct creates a draft listing
func NewProduct(sellerID uuid.UUID, details ProductDetails, policy ListingPolicy, now time.Time) (*Product, error) {
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller is required")
	}
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SellerID:          sellerID,
		Status:            ProductStatusDraft,
		ImageKeys:         []string{},
	}
	if err := p.applyDetails(details, policy, now); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update edits the listing. Allowed on drafts and on active listings nobody bid on.
func (p *Product) Update(details ProductDetails, policy ListingPolicy, now time.Time) error {
	if !p.IsEditable() {
		if p.BidCount > 0 {
			return ErrHasBids
		}
		return shared.ErrInvalidState.Withf("Cannot edit a %s product", p.Status)
	}
	if err := p.applyDetails(details, policy, now); err != nil {
		return err
	}
	p.IncrementVersion()
	return nil
}

// IsEditable reports whether the seller may still change listing details
func (p *Product) IsEditable() bool {
	return p.Status == ProductStatusDraft || (p.Status == ProductStatusActive && p.BidCount == 0)
}

func (p *Product) applyDetails(d ProductDetails, policy ListingPolicy, now time.Time) error {
	title := norm.NFKC.String(strings.TrimSpace(d.Title))
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title is required")
	}
	if utf8.RuneCountInString(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(d.Description) > 10000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 10000 characters")
	}
	category := strings.ToLower(strings.TrimSpace(d.Category))
	if utf8.RuneCountInString(category) > 50 {
		return shared.NewDomainError("INVALID_CATEGORY", "Category cannot exceed 50 characters")
	}

	if !d.StartingPrice.IsPositive() || !HasMoneyScale(d.StartingPrice) {
		return shared.NewDomainError("INVALID_STARTING_PRICE", "Starting price must be positive with at most two decimal places")
	}
	if !d.BidIntervalPrice.IsPositive() || !HasMoneyScale(d.BidIntervalPrice) {
		return shared.NewDomainError("INVALID_BID_INTERVAL", "Bid interval must be positive with at most two decimal places")
	}

	rate := policy.DefaultCommissionRate
	if d.CommissionRate != nil {
		rate = *d.CommissionRate
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_COMMISSION_RATE", "Commission rate must be between 0 and 100")
	}

	startsAt := d.StartsAt
	if startsAt.IsZero() {
		startsAt = now
	}
	if !d.EndsAt.After(now) {
		return shared.NewDomainError("INVALID_END_TIME", "End time must be in the future")
	}
	if !d.EndsAt.After(startsAt) {
		return shared.NewDomainError("INVALID_END_TIME", "End time must be after start time")
	}
	duration := d.EndsAt.Sub(startsAt)
	if policy.MinDuration > 0 && duration < policy.MinDuration {
		return shared.NewDomainError("INVALID_DURATION", fmt.Sprintf("Auction must run for at least %s", policy.MinDuration))
	}
	if policy.MaxDuration > 0 && duration > policy.MaxDuration {
		return shared.NewDomainError("INVALID_DURATION", fmt.Sprintf("Auction cannot run longer than %s", policy.MaxDuration))
	}

	p.Title = title
	p.Description = strings.TrimSpace(d.Description)
	p.Category = category
	p.StartingPrice = d.StartingPrice
	p.BidIntervalPrice = d.BidIntervalPrice
	p.CommissionRate = rate
	p.StartsAt = startsAt.UTC()
	p.EndsAt = d.EndsAt.UTC()
	return nil
}

// Publish opens the listing for bidding
func (p *Product) Publish(now time.Time) error {
	if p.Status != ProductStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft products can be published")
	}
	if !p.EndsAt.After(now) {
		return shared.NewDomainError("INVALID_END_TIME", "End time must be in the future")
	}
	p.Status = ProductStatusActive
	p.IncrementVersion()
	p.AddDomainEvent(NewProductPublishedEvent(p))
	return nil
}

// Cancel withdraws a listing that nobody has bid on
func (p *Product) Cancel(reason string, now time.Time) error {
	if p.Status != ProductStatusDraft && p.Status != ProductStatusActive {
		return shared.ErrInvalidState.Withf("Cannot cancel a %s product", p.Status)
	}
	if p.BidCount > 0 {
		return ErrHasBids
	}
	p.markCancelled(reason, now)
	return nil
}

// Moderate force-cancels a listing regardless of bids
func (p *Product) Moderate(reason string, now time.Time) error {
	if p.Status != ProductStatusDraft && p.Status != ProductStatusActive {
		return shared.ErrInvalidState.Withf("Cannot moderate a %s product", p.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Moderation reason is required")
	}
	p.markCancelled(reason, now)
	return nil
}

func (p *Product) markCancelled(reason string, now time.Time) {
	p.Status = ProductStatusCancelled
	p.CancelReason = strings.TrimSpace(reason)
	p.ClosedAt = &now
	p.IncrementVersion()
	p.AddDomainEvent(NewProductCancelledEvent(p))
}

// CanDelete reports whether the listing may be removed outright
func (p *Product) CanDelete() bool {
	return p.Status == ProductStatusDraft || p.Status == ProductStatusCancelled
}

// AttachImage adds an uploaded object key to the gallery
func (p *Product) AttachImage(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return shared.NewDomainError("INVALID_IMAGE", "Image key is required")
	}
	if p.Status.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change images on a closed product")
	}
	for _, k := range p.ImageKeys {
		if k == key {
			return shared.NewDomainError("ALREADY_EXISTS", "Image is already attached")
		}
	}
	if len(p.ImageKeys) >= MaxProductImages {
		return ErrTooManyImages
	}
	p.ImageKeys = append(p.ImageKeys, key)
	p.IncrementVersion()
	return nil
}

// RemoveImage detaches an image key
func (p *Product) RemoveImage(key string) error {
	for i, k := range p.ImageKeys {
		if k == key {
			p.ImageKeys = append(p.ImageKeys[:i:i], p.ImageKeys[i+1:]...)
			p.IncrementVersion()
			return nil
		}
	}
	return shared.ErrNotFound
}

// HasBids reports whether any bid was accepted
func (p *Product) HasBids() bool {
	return p.BidCount > 0
}

// MinimumNextBid is the lowest amount the next bid may offer
func (p *Product) MinimumNextBid() decimal.Decimal {
	return MinimumNextBid(p.StartingPrice, p.CurrentBidPrice, p.BidIntervalPrice, p.HasBids())
}

// AcceptsBids reports whether a bid placed at now could be accepted
func (p *Product) AcceptsBids(now time.Time) bool {
	return p.checkOpen(now) == nil
}

func (p *Product) checkOpen(now time.Time) error {
	if p.Status != ProductStatusActive {
		return ErrAuctionNotActive
	}
	if now.Before(p.StartsAt) {
		return ErrAuctionNotStarted
	}
	if !now.Before(p.EndsAt) {
		return ErrAuctionClosed
	}
	return nil
}

// PlaceBid validates and records a bid, moving the current price up
func (p *Product) PlaceBid(bidderID uuid.UUID, amount decimal.Decimal, now time.Time) (*Bid, error) {
	if err := p.checkOpen(now); err != nil {
		return nil, err
	}
	if bidderID == p.SellerID {
		return nil, ErrSelfBid
	}
	if p.CurrentBidderID != nil && *p.CurrentBidderID == bidderID {
		return nil, ErrAlreadyLeading
	}
	if !amount.IsPositive() || !HasMoneyScale(amount) {
		return nil, ErrInvalidAmount
	}
	minimum := p.MinimumNextBid()
	if !BidMeetsMinimum(amount, minimum) {
		return nil, ErrBidTooLow.Withf("Bid must be at least %s", minimum.StringFixed(MoneyScale))
	}

	previous := p.CurrentBidderID
	previousAmount := p.CurrentBidPrice

	bid := NewBid(p.ID, bidderID, amount, p.CommissionRate, now)
	p.CurrentBidPrice = bid.Amount
	p.CurrentBidderID = &bid.BidderID
	p.BidCount++
	p.IncrementVersion()

	p.AddDomainEvent(NewBidPlacedEvent(p, bid))
	if previous != nil {
		p.AddDomainEvent(NewOutbidEvent(p, *previous, previousAmount, bid.Amount))
	}
	return bid, nil
}

// Close settles an auction whose end time has passed
func (p *Product) Close(now time.Time) error {
	if p.Status != ProductStatusActive {
		return ErrAuctionNotActive
	}
	if now.Before(p.EndsAt) {
		return ErrAuctionRunning
	}
	if p.HasBids() && p.CurrentBidderID != nil {
		winner := *p.CurrentBidderID
		p.Status = ProductStatusSold
		p.WinnerID = &winner
		p.FinalPrice = p.CurrentBidPrice
	} else {
		p.Status = ProductStatusUnsold
	}
	p.ClosedAt = &now
	p.IncrementVersion()
	p.AddDomainEvent(NewAuctionClosedEvent(p))
	return nil
}

// Countdown returns the time left until the auction ends
func (p *Product) Countdown(now time.Time) Countdown {
	if p.Status.IsClosed() {
		return Countdown{Expired: true}
	}
	return CountdownTo(p.EndsAt, now)
}

// Quote prices a prospective bid. A zero amount quotes the minimum next bid.
func (p *Product) Quote(amount decimal.Decimal, steps int, now time.Time) Quote {
	minimum := p.MinimumNextBid()
	if amount.IsZero() {
		amount = minimum
	}
	return Quote{
		MinimumNextBid: minimum,
		Steps:          BidSteps(minimum, p.BidIntervalPrice, steps),
		Amount:         amount,
		CommissionRate: p.CommissionRate,
		Commission:     Commission(amount, p.CommissionRate),
		TotalPayable:   TotalPayable(amount, p.CommissionRate),
		Countdown:      p.Countdown(now),
		AcceptsBids:    p.AcceptsBids(now),
	}
}
