package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository defines persistence for listings
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, int64, error)

	// Create inserts a new listing
	Create(ctx context.Context, product *Product) error

	// Update saves the listing if storage still holds product.StoredVersion().
	// Returns shared.ErrConcurrencyConflict otherwise.
	Update(ctx context.Context, product *Product) error

	// PlaceBid persists the bid and the updated listing atomically with
	// the same version check as Update
	PlaceBid(ctx context.Context, product *Product, bid *Bid) error

	Delete(ctx context.Context, id uuid.UUID) error

	// FindEndedActive returns active listings whose end time is at or before
	// now, ordered by (ends_at, id) and strictly after the cursor when one
	// is given
	FindEndedActive(ctx context.Context, now time.Time, after *SweepCursor, limit int) ([]*Product, error)

	CountByStatus(ctx context.Context) (map[ProductStatus]int64, error)
}

// SweepCursor is the (ends_at, id) position of the last listing a close
// sweep has handled
type SweepCursor struct {
	EndsAt time.Time
	ID     uuid.UUID
}

// CursorOf returns the sweep position of p
func CursorOf(p *Product) *SweepCursor {
	return &SweepCursor{EndsAt: p.EndsAt, ID: p.ID}
}

// BidRepository reads the bid ledger
type BidRepository interface {
	FindByProduct(ctx context.Context, productID uuid.UUID, filter BidFilter) ([]*Bid, int64, error)
	FindByBidder(ctx context.Context, bidderID uuid.UUID, filter BidFilter) ([]*Bid, int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// ProductFilter contains filter options for listing queries
type ProductFilter struct {
	Keyword  string
	Category string
	Status   *ProductStatus
	SellerID *uuid.UUID
	// EndingBefore narrows to auctions closing before the given time
	EndingBefore *time.Time

	Page     int
	PageSize int

	SortBy    string
	SortOrder string
}

// NewProductFilter creates a filter sorted by soonest closing first
func NewProductFilter() ProductFilter {
	return ProductFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "ends_at",
		SortOrder: "asc",
	}
}

func (f ProductFilter) WithKeyword(keyword string) ProductFilter {
	f.Keyword = keyword
	return f
}

func (f ProductFilter) WithCategory(category string) ProductFilter {
	f.Category = category
	return f
}

func (f ProductFilter) WithStatus(status ProductStatus) ProductFilter {
	f.Status = &status
	return f
}

func (f ProductFilter) WithSeller(sellerID uuid.UUID) ProductFilter {
	f.SellerID = &sellerID
	return f
}

func (f ProductFilter) WithPagination(page, pageSize int) ProductFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

func (f ProductFilter) WithSorting(sortBy, sortOrder string) ProductFilter {
	f.SortBy = sortBy
	f.SortOrder = sortOrder
	return f
}

func (f ProductFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

func (f ProductFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// BidFilter pages through the ledger, newest first
type BidFilter struct {
	Page     int
	PageSize int
}

func NewBidFilter(page, pageSize int) BidFilter {
	return BidFilter{Page: page, PageSize: pageSize}
}

func (f BidFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

func (f BidFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
