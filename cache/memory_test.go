package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(10, time.Hour)
	ctx := context.Background()

	if err := c.Set(ctx, "en:Bonjour", "Hello"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok := c.Get(ctx, "en:Bonjour")
	if !ok {
		t.Error("Get should return true for existing key")
	}
	if val != "Hello" {
		t.Errorf("Get returned %q, want %q", val, "Hello")
	}

	val, ok = c.Get(ctx, "en:Bonsoir")
	if ok {
		t.Error("Get should return false for missing key")
	}
	if val != "" {
		t.Errorf("Get should return empty string for missing key, got %q", val)
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(10, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	_ = c.Set(ctx, "key1", "value1")

	clock.Advance(59 * time.Second)
	if _, ok := c.Get(ctx, "key1"); !ok {
		t.Error("Value should be available before TTL")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(ctx, "key1"); ok {
		t.Error("Value should be expired once age reaches TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Expired entry should be removed lazily, len=%d", c.Len())
	}
}

func TestMemoryCache_NoTTL(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(0, 0, WithClock(clock.Now))
	ctx := context.Background()

	_ = c.Set(ctx, "key1", "value1")
	clock.Advance(24 * 365 * time.Hour)

	if val, ok := c.Get(ctx, "key1"); !ok || val != "value1" {
		t.Error("Value should never expire with TTL=0")
	}
}

func TestMemoryCache_EvictsOldestTenth(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(20, time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	for i := range 20 {
		_ = c.Set(ctx, fmt.Sprintf("k%02d", i), "v")
		clock.Advance(time.Second)
	}
	if c.Len() != 20 {
		t.Fatalf("Expected 20 entries, got %d", c.Len())
	}

	// Rewriting k00 makes it the newest entry
	_ = c.Set(ctx, "k00", "v2")
	clock.Advance(time.Second)

	// 21st key triggers eviction of 20/10 = 2 oldest writes: k01, k02
	_ = c.Set(ctx, "k20", "v")

	if c.Len() != 19 {
		t.Fatalf("Expected 19 entries after eviction, got %d", c.Len())
	}
	for _, gone := range []string{"k01", "k02"} {
		if _, ok := c.Get(ctx, gone); ok {
			t.Errorf("%s should have been evicted", gone)
		}
	}
	for _, kept := range []string{"k00", "k03", "k20"} {
		if _, ok := c.Get(ctx, kept); !ok {
			t.Errorf("%s should have been kept", kept)
		}
	}
}

func TestMemoryCache_EvictsAtLeastOne(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(3, time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	// same timestamp for all: insertion order decides
	for _, k := range []string{"a", "b", "c", "d"} {
		_ = c.Set(ctx, k, "v")
	}

	if c.Len() != 3 {
		t.Fatalf("Expected 3 entries, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("a should have been evicted")
	}
}

func TestMemoryCache_EvictionRoundsUp(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(15, time.Hour, WithClock(clock.Now))
	ctx := context.Background()

	for i := range 16 {
		_ = c.Set(ctx, fmt.Sprintf("k%02d", i), "v")
		clock.Advance(time.Second)
	}

	// ceil(15/10) = 2 evicted
	if c.Len() != 14 {
		t.Fatalf("Expected 14 entries after eviction, got %d", c.Len())
	}
	for _, gone := range []string{"k00", "k01"} {
		if _, ok := c.Get(ctx, gone); ok {
			t.Errorf("%s should have been evicted", gone)
		}
	}
	if _, ok := c.Get(ctx, "k02"); !ok {
		t.Error("k02 should have been kept")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(10, time.Hour)
	ctx := context.Background()

	_ = c.Set(ctx, "key1", "value1")
	_ = c.Set(ctx, "key2", "value2")
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len should be 0 after Clear, got %d", c.Len())
	}
}

func TestMemoryCache_Entries(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(10, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	_ = c.Set(ctx, "old", "1")
	clock.Advance(2 * time.Minute)
	_ = c.Set(ctx, "new", "2")

	entries, err := c.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 || entries["new"] != "2" {
		t.Errorf("Expected only the live entry, got %v", entries)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(50, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n)
			_ = c.Set(ctx, key, "value")
			c.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("cache grew past its bound: %d", c.Len())
	}
}
