package persistence

import (
	"errors"

	"github.com/bidhouse/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm sentinel errors onto domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

func conflict(entity string) error {
	return shared.NewDomainError(shared.ErrConcurrencyConflict.Code, entity+" was modified concurrently, reload and retry")
}
