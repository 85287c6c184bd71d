package auction

import (
	"context"
	"errors"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BiddingServiceConfig holds bid placement settings
type BiddingServiceConfig struct {
	// Extra attempts after a lost optimistic-lock race
	MaxRetries int
	QuoteSteps int
}

// DefaultBiddingServiceConfig returns three retries and five quote steps
func DefaultBiddingServiceConfig() BiddingServiceConfig {
	return BiddingServiceConfig{MaxRetries: 3, QuoteSteps: 5}
}

// BiddingService places bids and reads the bid ledger
type BiddingService struct {
	productRepo    auction.ProductRepository
	bidRepo        auction.BidRepository
	userRepo       identity.UserRepository
	recorder       BidRecorder
	eventPublisher shared.EventPublisher
	config         BiddingServiceConfig
	logger         *zap.Logger
	now            func() time.Time
}

// NewBiddingService creates a bidding service
func NewBiddingService(
	productRepo auction.ProductRepository,
	bidRepo auction.BidRepository,
	userRepo identity.UserRepository,
	config BiddingServiceConfig,
	logger *zap.Logger,
) *BiddingService {
	if config.QuoteSteps <= 0 {
		config.QuoteSteps = 5
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &BiddingService{
		productRepo: productRepo,
		bidRepo:     bidRepo,
		userRepo:    userRepo,
		recorder:    nopBidRecorder{},
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BiddingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRecorder sets where rejected bids and retries are reported
func (s *BiddingService) SetRecorder(recorder BidRecorder) {
	if recorder == nil {
		recorder = nopBidRecorder{}
	}
	s.recorder = recorder
}

func (s *BiddingService) checkBidder(ctx context.Context, bidderID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, bidderID)
	if err != nil {
		return err
	}
	if user.Role != identity.RoleBuyer {
		return shared.NewDomainError("FORBIDDEN", "Only buyers can place bids")
	}
	if user.IsSuspended() {
		return identity.ErrUserSuspended
	}
	if !user.IsEmailVerified() {
		return identity.ErrEmailNotVerified
	}
	return nil
}

// PlaceBid validates and records a bid. When another bid lands between
// load and save the listing is reloaded and the bid re-validated, so a
// bid that is no longer high enough fails with BID_TOO_LOW.
func (s *BiddingService) PlaceBid(ctx context.Context, input PlaceBidInput) (result *PlaceBidResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bidding", "place_bid",
		telemetry.AttrProductID, input.ProductID,
		telemetry.AttrBidderID, input.BidderID,
		telemetry.AttrAmount, input.Amount.String())
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if err := s.checkBidder(ctx, input.BidderID); err != nil {
		s.reject(err)
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		telemetry.SetAttributes(span, telemetry.AttrAttempt, attempt+1)
		product, err := s.productRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			return nil, err
		}

		now := s.now()
		bid, err := product.PlaceBid(input.BidderID, input.Amount, now)
		if err != nil {
			s.reject(err)
			return nil, err
		}

		err = s.productRepo.PlaceBid(ctx, product, bid)
		if err == nil {
			publishProductEvents(ctx, s.eventPublisher, product)
			s.logger.Info("Bid placed",
				zap.String("product_id", product.ID.String()),
				zap.String("bidder_id", input.BidderID.String()),
				zap.String("amount", bid.Amount.StringFixed(auction.MoneyScale)),
				zap.Int("bid_count", product.BidCount),
				zap.Int("attempt", attempt+1))
			return &PlaceBidResult{
				Bid:            toBidResponse(bid),
				BidCount:       product.BidCount,
				MinimumNextBid: product.MinimumNextBid(),
				Countdown:      product.Countdown(now),
				Version:        product.Version,
			}, nil
		}

		if !isRetryable(err) {
			return nil, err
		}
		if attempt >= s.config.MaxRetries {
			s.logger.Warn("Bid abandoned after repeated conflicts",
				zap.String("product_id", input.ProductID.String()),
				zap.Int("attempts", attempt+1))
			s.reject(shared.ErrConcurrencyConflict)
			return nil, shared.ErrConcurrencyConflict
		}
		s.recorder.BidRetried()
		telemetry.AddEvent(span, "optimistic_lock_conflict", telemetry.AttrAttempt, attempt+1)
		s.logger.Debug("Bid lost a concurrent update, retrying",
			zap.String("product_id", input.ProductID.String()),
			zap.Int("attempt", attempt+1))
	}
}

func (s *BiddingService) reject(err error) {
	code := "UNKNOWN"
	var de *shared.DomainError
	if errors.As(err, &de) {
		code = de.Code
	}
	s.recorder.BidRejected(code)
}

// publicProduct loads a listing that is visible to everyone
func (s *BiddingService) publicProduct(ctx context.Context, productID uuid.UUID) (*auction.Product, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Status == auction.ProductStatusDraft {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// GetQuote prices a prospective bid. A nil amount quotes the minimum next bid.
func (s *BiddingService) GetQuote(ctx context.Context, productID uuid.UUID, amount *decimal.Decimal) (*auction.Quote, error) {
	p, err := s.publicProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	var a decimal.Decimal
	if amount != nil {
		if !amount.IsPositive() || !auction.HasMoneyScale(*amount) {
			return nil, auction.ErrInvalidAmount
		}
		a = *amount
	}
	quote := p.Quote(a, s.config.QuoteSteps, s.now())
	return &quote, nil
}

// ListProductBids pages through a listing's bids, newest first
func (s *BiddingService) ListProductBids(ctx context.Context, productID uuid.UUID, page, pageSize int) (shared.Paginated[BidResponse], error) {
	if _, err := s.publicProduct(ctx, productID); err != nil {
		return shared.Paginated[BidResponse]{}, err
	}
	filter := auction.NewBidFilter(max(page, 1), pageSize)
	bids, total, err := s.bidRepo.FindByProduct(ctx, productID, filter)
	if err != nil {
		return shared.Paginated[BidResponse]{}, err
	}
	items := make([]BidResponse, len(bids))
	for i, b := range bids {
		items[i] = toBidResponse(b)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// ListMyBids returns the buyer's bids with where they stand on each listing
func (s *BiddingService) ListMyBids(ctx context.Context, bidderID uuid.UUID, page, pageSize int) (shared.Paginated[MyBidResponse], error) {
	filter := auction.NewBidFilter(max(page, 1), pageSize)
	bids, total, err := s.bidRepo.FindByBidder(ctx, bidderID, filter)
	if err != nil {
		return shared.Paginated[MyBidResponse]{}, err
	}

	products := make(map[uuid.UUID]*auction.Product)
	items := make([]MyBidResponse, 0, len(bids))
	for _, b := range bids {
		p, ok := products[b.ProductID]
		if !ok {
			p, err = s.productRepo.FindByID(ctx, b.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					continue
				}
				return shared.Paginated[MyBidResponse]{}, err
			}
			products[b.ProductID] = p
		}
		items = append(items, MyBidResponse{
			BidResponse:     toBidResponse(b),
			ProductTitle:    p.Title,
			ProductStatus:   string(p.Status),
			CurrentBidPrice: p.CurrentBidPrice,
			EndsAt:          p.EndsAt,
			Standing:        auction.StandingOf(p, bidderID),
		})
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}
