package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](4)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on an empty cache must miss")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}

	c.Set("a", 2)
	v, _ = c.Get("a")
	if v != 2 {
		t.Errorf("Get(a) after update = %d; want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d; want 1", c.Len())
	}
}

func TestEvictsOldest(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry must be evicted at capacity")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("entry b must survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("entry c must survive")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d; want 2", c.Len())
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("recently read entry must not be evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry must be evicted")
	}
}

func TestUpdateRefreshesRecency(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)
	c.Set("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("updated entry must not be evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("stale entry must be evicted first")
	}
}

func TestClear(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d; want 0", c.Len())
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache must be usable after Clear")
	}
}

func TestDefaultCapacity(t *testing.T) {
	c := New[int, int](0)
	for i := 0; i < 64; i++ {
		c.Set(i, i)
	}
	if c.Len() != 64 {
		t.Errorf("Len = %d; want 64", c.Len())
	}
	c.Set(64, 64)
	if c.Len() != 64 {
		t.Errorf("Len after overflow = %d; want 64", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[string, int](32)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("key-%d", i%40)
				c.Set(key, g)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 32 {
		t.Errorf("Len = %d; want at most 32", c.Len())
	}
}
