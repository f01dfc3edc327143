package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(ttl, WithClock(clock.Now)), clock
}

func TestGetReturnsValueWithinTTL(t *testing.T) {
	c, clock := newTestCache(5 * time.Minute)

	c.Set("issue:o:r:1", "hello")
	clock.Advance(4*time.Minute + 59*time.Second)

	v, ok := c.Get("issue:o:r:1")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestGetReportsAbsentAfterTTL(t *testing.T) {
	c, clock := newTestCache(5 * time.Minute)

	c.Set("issue:o:r:1", "hello")
	clock.Advance(5 * time.Minute)

	_, ok := c.Get("issue:o:r:1")
	assert.False(t, ok)

	// Lazy expiry: the entry is still stored, just not valid.
	s := c.Stats()
	assert.Equal(t, 1, s.Total)
	assert.Equal(t, 0, s.Valid)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestSetOverwritesAndRefreshesTimestamp(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.Set("k", 1)
	clock.Advance(50 * time.Second)
	c.Set("k", 2)
	clock.Advance(50 * time.Second)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInvalidatePrefix(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("issues:o:r:open:1:30", "a")
	c.Set("issues:o:r:closed:2:30", "b")
	c.Set("issues:o:r2:open:1:30", "c")
	c.Set("issue:o:r:1", "d")

	removed := c.InvalidatePrefix("issues:o:r:")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("issues:o:r:open:1:30")
	assert.False(t, ok)
	_, ok = c.Get("issues:o:r:closed:2:30")
	assert.False(t, ok)

	v, ok := c.Get("issues:o:r2:open:1:30")
	require.True(t, ok)
	assert.Equal(t, "c", v)
	_, ok = c.Get("issue:o:r:1")
	assert.True(t, ok)
}

func TestInvalidatePredicate(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("a1", 1)
	c.Set("a2", 2)
	c.Set("b1", 3)

	removed := c.Invalidate(func(key string) bool { return key[len(key)-1] == '1' })
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Stats().Total)
}

func TestInvalidateOne(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("comments:o:r:7", []string{"x"})
	c.Set("comments:o:r:70", []string{"y"})

	assert.True(t, c.InvalidateOne("comments:o:r:7"))
	assert.False(t, c.InvalidateOne("comments:o:r:7"))

	_, ok := c.Get("comments:o:r:70")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Clear()

	assert.Equal(t, Stats{Total: 0, Valid: 0, TTL: time.Minute}, c.Stats())
}

func TestNewDefaultsTTL(t *testing.T) {
	c := New(0)
	assert.Equal(t, 5*time.Minute, c.TTL())
}

func TestGetAs(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("n", 42)

	n, ok := GetAs[int](c, "n")
	require.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = GetAs[string](c, "n")
	assert.False(t, ok, "wrong type reports absent")
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				c.Set("k", j)
				c.Get("k")
				c.InvalidatePrefix("k")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestSetIfGeneration(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *Cache)
		stored     bool
	}{
		{name: "no invalidation", invalidate: func(*Cache) {}, stored: true},
		{name: "prefix matching nothing", invalidate: func(c *Cache) { c.InvalidatePrefix("issues:o:r:") }, stored: false},
		{name: "single key", invalidate: func(c *Cache) { c.InvalidateOne("issue:o:r:1") }, stored: false},
		{name: "clear", invalidate: func(c *Cache) { c.Clear() }, stored: false},
		{name: "plain set", invalidate: func(c *Cache) { c.Set("other", 1) }, stored: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache(time.Minute)

			gen := c.Generation()
			tt.invalidate(c)

			assert.Equal(t, tt.stored, c.SetIfGeneration("issues:o:r:open:1:30", "page", gen))
			_, ok := c.Get("issues:o:r:open:1:30")
			assert.Equal(t, tt.stored, ok)
		})
	}
}
