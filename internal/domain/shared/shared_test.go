package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	reworded := ErrInvalidState.Withf("Cannot cancel a %s product", "sold")

	assert.Equal(t, "Cannot cancel a sold product", reworded.Error())
	assert.True(t, errors.Is(reworded, ErrInvalidState))
	assert.True(t, errors.Is(fmt.Errorf("cancel: %w", reworded), ErrInvalidState))
	assert.False(t, errors.Is(reworded, ErrNotFound))
	assert.Equal(t, "Operation not allowed in current state", ErrInvalidState.Message)

	de, ok := IsDomainError(fmt.Errorf("wrapped: %w", reworded))
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE", de.Code)

	_, ok = IsDomainError(errors.New("plain"))
	assert.False(t, ok)
}

func TestBaseAggregateRoot_Versioning(t *testing.T) {
	root := NewBaseAggregateRoot()
	assert.Equal(t, 1, root.GetVersion())
	assert.Zero(t, root.StoredVersion())

	root.RestoreVersion(4)
	created := root.UpdatedAt
	root.IncrementVersion()
	root.IncrementVersion()

	assert.Equal(t, 6, root.GetVersion())
	assert.Equal(t, 4, root.StoredVersion())
	assert.False(t, root.UpdatedAt.Before(created))
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	root := NewBaseAggregateRoot()
	ev := NewBaseDomainEvent("BidPlaced", "Product", root.ID)
	root.AddDomainEvent(&ev)

	require.Len(t, root.GetDomainEvents(), 1)
	assert.Equal(t, "BidPlaced", root.GetDomainEvents()[0].EventType())
	assert.Equal(t, root.ID, root.GetDomainEvents()[0].AggregateID())
	assert.NotEqual(t, uuid.Nil, root.GetDomainEvents()[0].EventID())

	root.ClearDomainEvents()
	assert.Empty(t, root.GetDomainEvents())
}
