package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create stores a new user together with its role profile in one transaction
	Create(ctx context.Context, user *User, profile Profile) error

	// Update saves changes with an optimistic version check
	Update(ctx context.Context, user *User) error

	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindAll returns a page of users and the total matching count
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// CountByRole returns the number of users per role
	CountByRole(ctx context.Context) (map[Role]int64, error)
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	// Matches username or email
	Keyword string
	Status  *UserStatus
	Role    *Role

	Page     int
	PageSize int

	SortBy    string
	SortOrder string
}

// NewUserFilter creates a new UserFilter with default values
func NewUserFilter() UserFilter {
	return UserFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

func (f UserFilter) WithKeyword(keyword string) UserFilter {
	f.Keyword = keyword
	return f
}

func (f UserFilter) WithStatus(status UserStatus) UserFilter {
	f.Status = &status
	return f
}

func (f UserFilter) WithRole(role Role) UserFilter {
	f.Role = &role
	return f
}

func (f UserFilter) WithPagination(page, pageSize int) UserFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

func (f UserFilter) WithSorting(sortBy, sortOrder string) UserFilter {
	f.SortBy = sortBy
	f.SortOrder = sortOrder
	return f
}

// Offset returns the offset for pagination
func (f UserFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the page size clamped to 1..100
func (f UserFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// BuyerProfileRepository persists buyer profiles
type BuyerProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*BuyerProfile, error)
	Save(ctx context.Context, profile *BuyerProfile) error
}

// SellerProfileRepository persists seller profiles
type SellerProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*SellerProfile, error)
	Save(ctx context.Context, profile *SellerProfile) error
	CountPendingApproval(ctx context.Context) (int64, error)
}

// AdminProfileRepository persists admin profiles
type AdminProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*AdminProfile, error)
	Save(ctx context.Context, profile *AdminProfile) error
}
