package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/dealerhub/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiresWithClock(t *testing.T) {
	fc := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](fc)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "home", 7, 30*time.Second))
	value, ok, err := c.Get(ctx, "home")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, value)

	fc.Advance(29 * time.Second)
	_, ok, _ = c.Get(ctx, "home")
	assert.True(t, ok)

	fc.Advance(time.Second)
	_, ok, _ = c.Get(ctx, "home")
	assert.False(t, ok)
}

func TestTTLCacheDeleteAndZeroTTL(t *testing.T) {
	c := NewTTLCache[string, string](clock.New())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	_, ok, _ := c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestKeyNormalizes(t *testing.T) {
	assert.Equal(t, "home|jk01", Key(" Home ", "", "JK01"))
}
