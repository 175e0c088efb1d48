package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionCacheRoundTrip(t *testing.T) {
	c := NewMemorySessionCache()
	ctx := context.Background()

	_, ok, err := c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, c.Save(ctx, SessionRecord{Token: "tok", UserID: "u-1", LastActivity: at}, time.Hour))

	got, ok, err := c.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, at.Equal(got.LastActivity))

	require.NoError(t, c.Clear(ctx))
	_, ok, _ = c.Load(ctx)
	assert.False(t, ok)
}

func TestMemorySessionCacheExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMemorySessionCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, SessionRecord{Token: "tok"}, time.Minute))
	now = now.Add(2 * time.Minute)

	_, ok, err := c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopSessionCache(t *testing.T) {
	var c SessionCache = NoopSessionCache{}
	ctx := context.Background()
	require.NoError(t, c.Save(ctx, SessionRecord{Token: "tok"}, time.Minute))
	_, ok, err := c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
