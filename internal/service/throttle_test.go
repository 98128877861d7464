package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoginThrottleDisabled(t *testing.T) {
	cfg := testConfig().Auth
	assert.Nil(t, NewLoginThrottle(nil, cfg))

	cfg.MaxLoginAttempts = 0
	assert.Nil(t, NewLoginThrottle(newMemoryCounter(), cfg))
}

func TestNilLoginThrottleNeverLocks(t *testing.T) {
	var throttle *LoginThrottle
	ctx := context.Background()

	locked, err := throttle.Locked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, locked)

	n, err := throttle.RecordFailure(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, throttle.Reset(ctx, "a@x.com"))
}

func TestLoginThrottleCountsPerEmail(t *testing.T) {
	throttle := NewLoginThrottle(newMemoryCounter(), testConfig().Auth)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := throttle.RecordFailure(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	locked, err := throttle.Locked(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = throttle.Locked(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, locked)
}
