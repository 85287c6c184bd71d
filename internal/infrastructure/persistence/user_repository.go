package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts the user and its role profile in one transaction
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User, profile identity.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.UserModelFromDomain(user)).Error; err != nil {
			return err
		}
		if profile == nil {
			return nil
		}
		row, err := profileModel(profile)
		if err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return translateError(err)
	}
	user.RestoreVersion(user.Version)
	return nil
}

func profileModel(p identity.Profile) (any, error) {
	switch v := p.(type) {
	case *identity.BuyerProfile:
		return models.BuyerProfileModelFromDomain(v), nil
	case *identity.SellerProfile:
		return models.SellerProfileModelFromDomain(v), nil
	case *identity.AdminProfile:
		return models.AdminProfileModelFromDomain(v), nil
	default:
		return nil, fmt.Errorf("unsupported profile type %T", p)
	}
}

// Update writes every mutable column when the stored version still matches
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	m := models.UserModelFromDomain(user)
	result := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ? AND version = ?", user.ID, user.StoredVersion()).
		Updates(map[string]any{
			"email":               m.Email,
			"username":            m.Username,
			"password_hash":       m.PasswordHash,
			"role":                m.Role,
			"status":              m.Status,
			"email_verified_at":   m.EmailVerifiedAt,
			"failed_attempts":     m.FailedAttempts,
			"locked_until":        m.LockedUntil,
			"last_login_at":       m.LastLoginAt,
			"last_login_ip":       m.LastLoginIP,
			"password_changed_at": m.PasswordChangedAt,
			"suspended_reason":    m.SuspendedReason,
			"version":             m.Version,
			"updated_at":          m.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return conflict("User")
	}
	user.RestoreVersion(user.Version)
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findOne(ctx, "email = ?", identity.NormalizeEmail(email))
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.findOne(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

func (r *GormUserRepository) findOne(ctx context.Context, query string, arg any) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of users matching the filter
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		query = query.Where("LOWER(username) LIKE ? OR email LIKE ?", like, like)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserModel
	if err := query.
		Order(userSort.orderBy(filter.SortBy, filter.SortOrder)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users, total, nil
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", identity.NormalizeEmail(email))
}

func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

func (r *GormUserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByRole groups users by role
func (r *GormUserRepository) CountByRole(ctx context.Context) (map[identity.Role]int64, error) {
	var rows []struct {
		Role  identity.Role
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[identity.Role]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
