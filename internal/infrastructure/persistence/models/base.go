package models

import (
	"time"

	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel holds the id and timestamp columns every table carries
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m BaseModel) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) SetEntity(e shared.BaseEntity) {
	*m = BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// AggregateModel adds the version column used for optimistic locking by
// products and users
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// Root rebuilds the aggregate root at its stored version
func (m AggregateModel) Root() shared.BaseAggregateRoot {
	root := shared.BaseAggregateRoot{BaseEntity: m.Entity()}
	root.RestoreVersion(m.Version)
	return root
}

func (m *AggregateModel) SetRoot(a shared.BaseAggregateRoot) {
	m.SetEntity(a.BaseEntity)
	m.Version = a.Version
}
