package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements auction.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*auction.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns a page of listings matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter auction.ProductFilter) ([]*auction.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("category = ?", strings.ToLower(c))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.EndingBefore != nil {
		query = query.Where("ends_at < ?", *filter.EndingBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := query.
		Order(productSort.orderBy(filter.SortBy, filter.SortOrder)).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toProducts(rows), total, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *auction.Product) error {
	if err := r.db.WithContext(ctx).Create(models.ProductModelFromDomain(product)).Error; err != nil {
		return translateError(err)
	}
	product.RestoreVersion(product.Version)
	return nil
}

// Update saves the listing with an optimistic version check
func (r *GormProductRepository) Update(ctx context.Context, product *auction.Product) error {
	if err := updateProduct(ctx, r.db, product); err != nil {
		return err
	}
	product.RestoreVersion(product.Version)
	return nil
}

// PlaceBid appends the bid and moves the listing forward in one transaction.
// A concurrent bid that committed first makes the version check fail and
// nothing is written.
func (r *GormProductRepository) PlaceBid(ctx context.Context, product *auction.Product, bid *auction.Bid) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateProduct(ctx, tx, product); err != nil {
			return err
		}
		return tx.Create(models.BidModelFromDomain(bid)).Error
	})
	if err != nil {
		return translateError(err)
	}
	product.RestoreVersion(product.Version)
	return nil
}

func updateProduct(ctx context.Context, db *gorm.DB, product *auction.Product) error {
	m := models.ProductModelFromDomain(product)
	result := db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.StoredVersion()).
		Updates(map[string]any{
			"title":              m.Title,
			"description":        m.Description,
			"category":           m.Category,
			"image_keys":         m.ImageKeys,
			"starting_price":     m.StartingPrice,
			"bid_interval_price": m.BidIntervalPrice,
			"current_bid_price":  m.CurrentBidPrice,
			"current_bidder_id":  m.CurrentBidderID,
			"bid_count":          m.BidCount,
			"commission_rate":    m.CommissionRate,
			"starts_at":          m.StartsAt,
			"ends_at":            m.EndsAt,
			"status":             m.Status,
			"winner_id":          m.WinnerID,
			"final_price":        m.FinalPrice,
			"closed_at":          m.ClosedAt,
			"cancel_reason":      m.CancelReason,
			"version":            m.Version,
			"updated_at":         m.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return conflict("Product")
	}
	return nil
}

// Delete removes a listing. Listings with bids are never deleted, so the
// ledger keeps its foreign keys.
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND bid_count = 0", id).Delete(&models.ProductModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return auction.ErrHasBids
	}
	return nil
}

// FindEndedActive returns up to limit active listings past their end time, oldest first
func (r *GormProductRepository) FindEndedActive(ctx context.Context, now time.Time, after *auction.SweepCursor, limit int) ([]*auction.Product, error) {
	var rows []models.ProductModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND ends_at <= ?", auction.ProductStatusActive, now)
	if after != nil {
		query = query.Where("(ends_at > ? OR (ends_at = ? AND id > ?))", after.EndsAt, after.EndsAt, after.ID)
	}
	if err := query.
		Order("ends_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

func (r *GormProductRepository) CountByStatus(ctx context.Context) (map[auction.ProductStatus]int64, error) {
	var rows []struct {
		Status auction.ProductStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[auction.ProductStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func toProducts(rows []models.ProductModel) []*auction.Product {
	products := make([]*auction.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products
}

var _ auction.ProductRepository = (*GormProductRepository)(nil)
