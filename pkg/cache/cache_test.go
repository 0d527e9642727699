package cache

import (
	"testing"
	"time"
)

func TestGenericCacheGetSetDelete(t *testing.T) {
	c := New(0, 0)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("k", "v")
	val, ok := c.Get("k")
	if !ok || val != "v" {
		t.Fatalf("Get(k) = %v, %v; want v, true", val, ok)
	}

	c.Set("k", "v2")
	if val, _ := c.Get("k"); val != "v2" {
		t.Fatalf("Get(k) after overwrite = %v, want v2", val)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestGenericCacheExpiry(t *testing.T) {
	c := New(0, 0)
	c.SetWithTTL("k", "v", 10*time.Millisecond)
	if !c.Has("k") {
		t.Fatal("expected hit immediately after SetWithTTL")
	}
	time.Sleep(20 * time.Millisecond)
	if c.Has("k") {
		t.Fatal("expected entry to have expired")
	}
}

func TestGenericCacheGetOrSet(t *testing.T) {
	c := New(0, 0)
	val, loaded := c.GetOrSet("k", "first")
	if loaded || val != "first" {
		t.Fatalf("first GetOrSet = %v, %v; want first, false", val, loaded)
	}
	val, loaded = c.GetOrSet("k", "second")
	if !loaded || val != "first" {
		t.Fatalf("second GetOrSet = %v, %v; want first, true", val, loaded)
	}
}

func TestGenericCacheRangeSkipsExpired(t *testing.T) {
	c := New(0, 0)
	c.Set("keep", 1)
	c.SetWithTTL("drop", 2, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	seen := map[string]interface{}{}
	c.Range(func(k string, v interface{}) bool {
		seen[k] = v
		return true
	})
	if _, ok := seen["drop"]; ok {
		t.Error("Range visited an expired key")
	}
	if v, ok := seen["keep"]; !ok || v != 1 {
		t.Errorf("Range missed live key, got %v", seen)
	}
}

func TestGenericCacheFlushAndCount(t *testing.T) {
	c := New(0, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if c.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Count())
	}
	c.Flush()
	if c.Count() != 0 {
		t.Fatalf("Count() after Flush = %d, want 0", c.Count())
	}
}

func TestGenericCacheJanitorSweepsExpired(t *testing.T) {
	c := New(0, 5*time.Millisecond)
	defer c.Close()
	c.SetWithTTL("k", "v", time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if c.Count() != 0 {
		t.Errorf("Count() after janitor sweep = %d, want 0", c.Count())
	}
}
