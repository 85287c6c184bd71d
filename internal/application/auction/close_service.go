package auction

import (
	"context"
	"errors"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/bidhouse/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CloseSummary counts the outcome of one sweep
type CloseSummary struct {
	Sold    int
	Unsold  int
	Skipped int
	Failed  int
}

// Closed returns the number of auctions settled by the sweep
func (s CloseSummary) Closed() int {
	return s.Sold + s.Unsold
}

// AuctionCloseService settles active listings whose end time has passed
type AuctionCloseService struct {
	productRepo    auction.ProductRepository
	eventPublisher shared.EventPublisher
	batchSize      int
	logger         *zap.Logger
	now            func() time.Time
}

// NewAuctionCloseService creates the close sweeper
func NewAuctionCloseService(productRepo auction.ProductRepository, batchSize int, logger *zap.Logger) *AuctionCloseService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &AuctionCloseService{
		productRepo: productRepo,
		batchSize:   batchSize,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AuctionCloseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CloseEnded settles every ended auction, one batch at a time. The sweep
// walks forward by (ends_at, id), so listings that fail to close are left
// for the next run instead of being fetched again.
func (s *AuctionCloseService) CloseEnded(ctx context.Context) (CloseSummary, error) {
	var summary CloseSummary
	var cursor *auction.SweepCursor
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		now := s.now()
		products, err := s.productRepo.FindEndedActive(ctx, now, cursor, s.batchSize)
		if err != nil {
			return summary, err
		}

		for _, p := range products {
			cursor = auction.CursorOf(p)
			s.closeOne(ctx, p, now, &summary)
		}

		if len(products) < s.batchSize {
			break
		}
	}

	if summary.Closed() > 0 || summary.Failed > 0 {
		s.logger.Info("Auction close sweep finished",
			zap.Int("sold", summary.Sold),
			zap.Int("unsold", summary.Unsold),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed))
	}
	return summary, nil
}

func (s *AuctionCloseService) closeOne(ctx context.Context, p *auction.Product, now time.Time, summary *CloseSummary) {
	ctx, span := telemetry.StartServiceSpan(ctx, "auction_close", "close",
		telemetry.AttrProductID, p.ID,
		telemetry.AttrSellerID, p.SellerID)
	defer span.End()

	for attempt := 0; attempt < 2; attempt++ {
		if err := p.Close(now); err != nil {
			// Already settled elsewhere or end time moved
			summary.Skipped++
			return
		}
		err := s.productRepo.Update(ctx, p)
		if err == nil {
			if p.Status == auction.ProductStatusSold {
				summary.Sold++
			} else {
				summary.Unsold++
			}
			publishProductEvents(ctx, s.eventPublisher, p)
			return
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Error("Failed to close auction", zap.String("product_id", p.ID.String()), zap.Error(err))
			summary.Failed++
			return
		}
		reloaded, ferr := s.productRepo.FindByID(ctx, p.ID)
		if ferr != nil {
			s.logger.Error("Failed to reload auction", zap.String("product_id", p.ID.String()), zap.Error(ferr))
			summary.Failed++
			return
		}
		p = reloaded
	}
	summary.Failed++
}
