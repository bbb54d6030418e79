package http

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCacheBasics(t *testing.T) {
	c := newLRUCache[int](2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %d, %v", v, ok)
	}

	// "a" was just used, so adding "c" evicts "b".
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("b should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := newLRUCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should miss")
	}
}

func TestLRUCachePurge(t *testing.T) {
	c := newLRUCache[int](10, time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	c.Purge()
	for i := 0; i < 5; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); ok {
			t.Errorf("k%d should be gone after purge", i)
		}
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := newLRUCache[int](10, 5*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(10 * time.Millisecond)
	if cleaned := c.CleanExpired(); cleaned != 2 {
		t.Errorf("cleaned = %d, want 2", cleaned)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("61st request in a minute should be rejected")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients are not affected")
	}
}
