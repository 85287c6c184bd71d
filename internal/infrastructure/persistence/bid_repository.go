package persistence

import (
	"context"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBidRepository reads the bid ledger. Bids are written only through
// GormProductRepository.PlaceBid.
type GormBidRepository struct {
	db *gorm.DB
}

func NewGormBidRepository(db *gorm.DB) *GormBidRepository {
	return &GormBidRepository{db: db}
}

func (r *GormBidRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter auction.BidFilter) ([]*auction.Bid, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.BidModel{}).Where("product_id = ?", productID), filter)
}

func (r *GormBidRepository) FindByBidder(ctx context.Context, bidderID uuid.UUID, filter auction.BidFilter) ([]*auction.Bid, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.BidModel{}).Where("bidder_id = ?", bidderID), filter)
}

func (r *GormBidRepository) page(_ context.Context, query *gorm.DB, filter auction.BidFilter) ([]*auction.Bid, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.BidModel
	if err := query.
		Order("placed_at DESC").
		Order("amount DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	bids := make([]*auction.Bid, len(rows))
	for i := range rows {
		bids[i] = rows[i].ToDomain()
	}
	return bids, total, nil
}

// CountSince counts bids placed at or after since
func (r *GormBidRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.BidModel{}).Where("placed_at >= ?", since).Count(&n).Error
	return n, err
}

var _ auction.BidRepository = (*GormBidRepository)(nil)
