package models

import (
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the auction Product aggregate
type ProductModel struct {
	AggregateModel
	SellerID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	Title            string                `gorm:"type:varchar(200);not null"`
	Description      string                `gorm:"type:text"`
	Category         string                `gorm:"type:varchar(50);index"`
	ImageKeys        pq.StringArray        `gorm:"type:text[]"`
	StartingPrice    decimal.Decimal       `gorm:"type:decimal(14,2);not null"`
	BidIntervalPrice decimal.Decimal       `gorm:"type:decimal(14,2);not null"`
	CurrentBidPrice  decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	CurrentBidderID  *uuid.UUID            `gorm:"type:uuid"`
	BidCount         int                   `gorm:"not null;default:0"`
	CommissionRate   decimal.Decimal       `gorm:"type:decimal(5,2);not null"`
	StartsAt         time.Time             `gorm:"not null"`
	EndsAt           time.Time             `gorm:"not null;index"`
	Status           auction.ProductStatus `gorm:"type:varchar(20);not null;index"`
	WinnerID         *uuid.UUID            `gorm:"type:uuid"`
	FinalPrice       decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	ClosedAt         *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
}

func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *auction.Product {
	images := make([]string, len(m.ImageKeys))
	copy(images, m.ImageKeys)
	return &auction.Product{
		BaseAggregateRoot: m.Root(),
		SellerID:          m.SellerID,
		Title:             m.Title,
		Description:       m.Description,
		Category:          m.Category,
		ImageKeys:         images,
		StartingPrice:     m.StartingPrice,
		BidIntervalPrice:  m.BidIntervalPrice,
		CurrentBidPrice:   m.CurrentBidPrice,
		CurrentBidderID:   m.CurrentBidderID,
		BidCount:          m.BidCount,
		CommissionRate:    m.CommissionRate,
		StartsAt:          m.StartsAt,
		EndsAt:            m.EndsAt,
		Status:            m.Status,
		WinnerID:          m.WinnerID,
		FinalPrice:        m.FinalPrice,
		ClosedAt:          m.ClosedAt,
		CancelReason:      m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *auction.Product) {
	m.SetRoot(p.BaseAggregateRoot)
	m.SellerID = p.SellerID
	m.Title = p.Title
	m.Description = p.Description
	m.Category = p.Category
	m.ImageKeys = pq.StringArray(append([]string{}, p.ImageKeys...))
	m.StartingPrice = p.StartingPrice
	m.BidIntervalPrice = p.BidIntervalPrice
	m.CurrentBidPrice = p.CurrentBidPrice
	m.CurrentBidderID = p.CurrentBidderID
	m.BidCount = p.BidCount
	m.CommissionRate = p.CommissionRate
	m.StartsAt = p.StartsAt
	m.EndsAt = p.EndsAt
	m.Status = p.Status
	m.WinnerID = p.WinnerID
	m.FinalPrice = p.FinalPrice
	m.ClosedAt = p.ClosedAt
	m.CancelReason = p.CancelReason
}

func ProductModelFromDomain(p *auction.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// BidModel is one row of the append-only bid ledger
type BidModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	BidderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Commission     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalPayable   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PlacedAt       time.Time       `gorm:"not null;index"`
}

func (BidModel) TableName() string {
	return "bids"
}

func (m *BidModel) ToDomain() *auction.Bid {
	return &auction.Bid{
		ID:             m.ID,
		ProductID:      m.ProductID,
		BidderID:       m.BidderID,
		Amount:         m.Amount,
		CommissionRate: m.CommissionRate,
		Commission:     m.Commission,
		TotalPayable:   m.TotalPayable,
		PlacedAt:       m.PlacedAt,
	}
}

func BidModelFromDomain(b *auction.Bid) *BidModel {
	return &BidModel{
		ID:             b.ID,
		ProductID:      b.ProductID,
		BidderID:       b.BidderID,
		Amount:         b.Amount,
		CommissionRate: b.CommissionRate,
		Commission:     b.Commission,
		TotalPayable:   b.TotalPayable,
		PlacedAt:       b.PlacedAt,
	}
}
