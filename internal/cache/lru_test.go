package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[string](4, time.Minute)
	defer c.Close()

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("a", "one")
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "one", v)

	c.Set("a", "two")
	v, _ = c.Get("a")
	require.Equal(t, "two", v)
	require.Equal(t, 1, c.Size())
}

func TestLRUEvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b becomes the eviction candidate.
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	require.False(t, ok)
	_, ok = c.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](4, 10*time.Millisecond)
	defer c.Close()

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	require.False(t, ok)
	require.Equal(t, 0, c.Size())
}

func TestLRUDelete(t *testing.T) {
	c := NewLRU[int](4, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Delete("a")
	c.Delete("a")

	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestLRUSweepExpired(t *testing.T) {
	c := NewLRU[int](8, 10*time.Millisecond)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)

	c.sweepExpired()
	require.Equal(t, 0, c.Size())
}
