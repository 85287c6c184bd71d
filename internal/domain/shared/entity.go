package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and audit stamp embedded by every entity
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
