package lang

import (
	"errors"
	"sync"
	"testing"

	"github.com/zeebo/xxh3"
)

func TestCache_Parse(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	a, err := c.Parse(t.Context(), "return 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	b, err := c.Parse(t.Context(), "return 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if a != b {
		t.Error("identical text was parsed twice")
	}

	// A different depth limit is a different entry.
	if d, _ := c.Parse(t.Context(), "return 1", WithMaxDepth(5)); d == a {
		t.Error("options are not part of the cache key")
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	// Eviction keeps the cache bounded.
	if _, err := c.Parse(t.Context(), "return 2"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.Len() != 2 {
		t.Errorf("Len() = %d after eviction, want 2", c.Len())
	}

	c.Purge()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Purge, want 0", c.Len())
	}
}

func TestCache_Errors(t *testing.T) {
	c, err := NewCache(0)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	for range 2 {
		if _, err := c.Parse(t.Context(), "return"); !errors.Is(err, ErrSyntax) {
			t.Fatalf("error = %v, want %v", err, ErrSyntax)
		}
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	c, err := NewCache(DefaultCacheSize)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	const workers = 8

	var (
		wg      sync.WaitGroup
		queries [workers]*Query
	)

	for i := range workers {
		wg.Go(func() {
			queries[i], _ = c.Parse(t.Context(), "for u in [1, 2] return u")
		})
	}

	wg.Wait()

	for i, q := range queries {
		if q == nil || q != queries[0] {
			t.Fatalf("worker %d got %p, want %p", i, q, queries[0])
		}
	}
}

func TestEvaluate_WithCache(t *testing.T) {
	c, err := NewCache(DefaultCacheSize)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	for range 3 {
		cur := Evaluate(t.Context(), "for u in [1, 2] return u * 2", nil, WithCache(c))
		if cur.IsError() {
			t.Fatalf("Evaluate: %v", cur.Err())
		}

		if got := List(cur.ToList()...).String(); got != "[2, 4]" {
			t.Fatalf("got %s, want [2, 4]", got)
		}
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_KeyCollision(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	// Plant an entry for other text under the key of "return 2".
	o := makeOptions()
	key := xxh3.HashString("return 2") ^ hashOptions(o)

	stale := &cacheEntry{text: "return 1", maxDepth: o.maxDepth}
	c.entries.Add(key, stale)

	q, err := c.Parse(t.Context(), "return 2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := q.String(); got != "return 2" {
		t.Errorf("Parse returned %q for a colliding key", got)
	}

	if stale.query != nil {
		t.Error("colliding entry was parsed")
	}
}
