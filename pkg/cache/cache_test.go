package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetAndGet(t *testing.T) {
	c := New(time.Minute, 0)

	c.Set("key", "value")
	got, found := c.Get("key")
	require.True(t, found)
	assert.Equal(t, "value", got)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestCacheExpiration(t *testing.T) {
	c := New(time.Minute, 0)

	c.SetWithExpiration("short", "value", 10*time.Millisecond)
	_, found := c.Get("short")
	require.True(t, found)

	time.Sleep(20 * time.Millisecond)
	_, found = c.Get("short")
	assert.False(t, found)
}

func TestCacheNoExpiration(t *testing.T) {
	c := New(0, 0)

	c.Set("forever", 42)
	time.Sleep(10 * time.Millisecond)
	got, found := c.Get("forever")
	require.True(t, found)
	assert.Equal(t, 42, got)
}

func TestCacheDelete(t *testing.T) {
	c := New(time.Minute, 0)

	c.Set("key", "value")
	assert.Equal(t, 1, c.Len())

	c.Delete("key")
	_, found := c.Get("key")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}
