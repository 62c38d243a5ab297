package cache_test

import (
	"testing"
	"time"

	"fertility/internal/cache"
)

func TestGetSet(t *testing.T) {
	c := cache.New(5 * time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss for absent key")
	}

	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if v.(int) != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestExpiry(t *testing.T) {
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	c := cache.New(5 * time.Minute)
	c.SetClock(func() time.Time { return now })

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	now = now.Add(5*time.Minute + time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped, len=%d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
	c.Delete("absent") // no-op
}

func TestDeletePrefix(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("dayRecord_2025-01-06", 1)
	c.Set("dayRecord_2025-01-07", 2)
	c.Set("cycles", 3)

	c.DeletePrefix("dayRecord_")

	if _, ok := c.Get("dayRecord_2025-01-06"); ok {
		t.Error("expected prefixed key to be gone")
	}
	if _, ok := c.Get("dayRecord_2025-01-07"); ok {
		t.Error("expected prefixed key to be gone")
	}
	if _, ok := c.Get("cycles"); !ok {
		t.Error("expected unrelated key to survive")
	}
}

func TestDeleteFunc(t *testing.T) {
	c := cache.New(time.Minute)
	c.Set("dayRecordsRange_2025-01-01_2025-01-31", 1)
	c.Set("dayRecordsRange_2025-02-01_2025-02-28", 2)

	c.DeleteFunc(func(key string) bool {
		return key == "dayRecordsRange_2025-01-01_2025-01-31"
	})

	if _, ok := c.Get("dayRecordsRange_2025-01-01_2025-01-31"); ok {
		t.Error("expected matched key to be gone")
	}
	if _, ok := c.Get("dayRecordsRange_2025-02-01_2025-02-28"); !ok {
		t.Error("expected unmatched key to survive")
	}
}

func TestSetRefreshesExpiry(t *testing.T) {
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	c := cache.New(5 * time.Minute)
	c.SetClock(func() time.Time { return now })

	c.Set("k", 1)
	now = now.Add(4 * time.Minute)
	c.Set("k", 2)
	now = now.Add(4 * time.Minute)

	v, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit, Set must refresh expiry")
	}
	if v.(int) != 2 {
		t.Fatalf("expected 2, got %v", v)
	}
}
