package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

func TestMemoryCache(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	var _ CacheService = c

	_, err := c.Get("missing")
	assert.ErrorIs(t, err, memcache.ErrCacheMiss)

	assert.NoError(t, c.Set("k", []byte("v"), time.Minute))
	v, err := c.Get("k")
	assert.NoError(t, err)
	assert.Equal(t, "v", string(v))

	now = now.Add(time.Minute)
	_, err = c.Get("k")
	assert.ErrorIs(t, err, memcache.ErrCacheMiss)

	assert.NoError(t, c.Set("forever", []byte("x"), 0))
	now = now.Add(24 * time.Hour)
	_, err = c.Get("forever")
	assert.NoError(t, err)

	assert.NoError(t, c.Delete("forever"))
	assert.Error(t, c.Delete("forever"))
}
