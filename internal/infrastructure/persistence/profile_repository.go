package persistence

import (
	"context"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertOnUser inserts or replaces the one profile row a user may have
func upsertOnUser(ctx context.Context, db *gorm.DB, row any, columns ...string) error {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(row).Error
	return translateError(err)
}

// GormBuyerProfileRepository implements identity.BuyerProfileRepository
type GormBuyerProfileRepository struct {
	db *gorm.DB
}

func NewGormBuyerProfileRepository(db *gorm.DB) *GormBuyerProfileRepository {
	return &GormBuyerProfileRepository{db: db}
}

func (r *GormBuyerProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.BuyerProfile, error) {
	var m models.BuyerProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

func (r *GormBuyerProfileRepository) Save(ctx context.Context, p *identity.BuyerProfile) error {
	return upsertOnUser(ctx, r.db, models.BuyerProfileModelFromDomain(p),
		"full_name", "phone", "shipping_address")
}

// GormSellerProfileRepository implements identity.SellerProfileRepository
type GormSellerProfileRepository struct {
	db *gorm.DB
}

func NewGormSellerProfileRepository(db *gorm.DB) *GormSellerProfileRepository {
	return &GormSellerProfileRepository{db: db}
}

func (r *GormSellerProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.SellerProfile, error) {
	var m models.SellerProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

func (r *GormSellerProfileRepository) Save(ctx context.Context, p *identity.SellerProfile) error {
	return upsertOnUser(ctx, r.db, models.SellerProfileModelFromDomain(p),
		"store_name", "description", "phone", "pickup_address", "approved", "approved_at", "approved_by")
}

// CountPendingApproval counts sellers waiting for an admin decision
func (r *GormSellerProfileRepository) CountPendingApproval(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.SellerProfileModel{}).Where("approved = ?", false).Count(&n).Error
	return n, err
}

// GormAdminProfileRepository implements identity.AdminProfileRepository
type GormAdminProfileRepository struct {
	db *gorm.DB
}

func NewGormAdminProfileRepository(db *gorm.DB) *GormAdminProfileRepository {
	return &GormAdminProfileRepository{db: db}
}

func (r *GormAdminProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*identity.AdminProfile, error) {
	var m models.AdminProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

func (r *GormAdminProfileRepository) Save(ctx context.Context, p *identity.AdminProfile) error {
	return upsertOnUser(ctx, r.db, models.AdminProfileModelFromDomain(p), "full_name", "department")
}

var (
	_ identity.BuyerProfileRepository  = (*GormBuyerProfileRepository)(nil)
	_ identity.SellerProfileRepository = (*GormSellerProfileRepository)(nil)
	_ identity.AdminProfileRepository  = (*GormAdminProfileRepository)(nil)
)
