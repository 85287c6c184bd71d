package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_JTI(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, bl.RevokeToken(ctx, "jti-1", time.Hour))

	listed, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)

	listed, err = bl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestInMemoryTokenBlacklist_EntryExpires(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	now := time.Now()
	bl.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, bl.RevokeToken(ctx, "jti", time.Minute))
	now = now.Add(2 * time.Minute)

	listed, err := bl.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, listed)
	assert.Empty(t, bl.jtis)
}

func TestInMemoryTokenBlacklist_UserInvalidation(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	ctx := context.Background()
	issued := time.Now().Add(-time.Hour)

	invalid, err := bl.UserSessionRevoked(ctx, "user-1", issued)
	require.NoError(t, err)
	assert.False(t, invalid)

	require.NoError(t, bl.RevokeUserSessions(ctx, "user-1", time.Hour))

	invalid, err = bl.UserSessionRevoked(ctx, "user-1", issued)
	require.NoError(t, err)
	assert.True(t, invalid)

	invalid, err = bl.UserSessionRevoked(ctx, "user-1", time.Now().Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, invalid, "tokens issued after the cut stay valid")

	invalid, err = bl.UserSessionRevoked(ctx, "user-2", issued)
	require.NoError(t, err)
	assert.False(t, invalid)
}

func TestInMemoryTokenBlacklist_TokenIssuedRightAfterCut(t *testing.T) {
	bl := NewInMemoryTokenBlacklist()
	now := time.Date(2026, 3, 1, 12, 0, 0, 400*int(time.Millisecond), time.UTC)
	bl.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, bl.RevokeUserSessions(ctx, "user-1", time.Hour))

	invalid, err := bl.UserSessionRevoked(ctx, "user-1", now.Add(-time.Millisecond))
	require.NoError(t, err)
	assert.True(t, invalid)

	invalid, err = bl.UserSessionRevoked(ctx, "user-1", now.Add(5*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, invalid, "a login in the same second as the cut keeps its session")
}
