package cache

import (
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ttl := time.Hour
	c := New(ttl)

	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.ttl != ttl {
		t.Errorf("expected TTL %v, got %v", ttl, c.ttl)
	}
	if c.entries == nil {
		t.Error("entries map not initialized")
	}
}

func TestNew_DefaultTTL(t *testing.T) {
	c := New(0)
	if c.ttl != DefaultTTL {
		t.Errorf("expected default TTL %v, got %v", DefaultTTL, c.ttl)
	}

	c = New(-time.Second)
	if c.ttl != DefaultTTL {
		t.Errorf("expected default TTL %v for negative input, got %v", DefaultTTL, c.ttl)
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c := New(time.Hour)

	c.Set("key1", "value1")
	val, found := c.Get("key1")
	if !found {
		t.Fatal("expected to find key1")
	}
	if val != "value1" {
		t.Errorf("expected value1, got %v", val)
	}

	// Miss on an unknown key must have no side effect
	val, found = c.Get("nonexistent")
	if found {
		t.Error("expected key not to be found")
	}
	if val != nil {
		t.Errorf("expected nil value, got %v", val)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after miss, got %d", c.Len())
	}
}

func TestCache_ExpiryEvicts(t *testing.T) {
	c := New(time.Hour)

	c.SetWithTTL("key1", "value1", 50*time.Millisecond)

	val, found := c.Get("key1")
	if !found {
		t.Fatal("expected to find key1")
	}
	if val != "value1" {
		t.Errorf("expected value1, got %v", val)
	}

	time.Sleep(80 * time.Millisecond)

	// Expired entry must be absent and evicted by the read itself
	if _, found := c.Get("key1"); found {
		t.Error("expected key1 to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired key to be evicted, store holds %d entries", c.Len())
	}
}

func TestCache_SetOverwriteResetsClock(t *testing.T) {
	c := New(time.Hour)

	c.SetWithTTL("key1", "value1", 50*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	// Overwrite must replace the value and restart the expiry clock
	c.SetWithTTL("key1", "value2", 50*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	val, found := c.Get("key1")
	if !found {
		t.Fatal("expected key1 to survive after overwrite reset its clock")
	}
	if val != "value2" {
		t.Errorf("expected value2, got %v", val)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(time.Hour)

	c.Set("key1", 1)
	c.Set("key2", 2)
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", c.Len())
	}
	if _, found := c.Get("key1"); found {
		t.Error("expected key1 to be gone after Clear")
	}
}

func TestCache_DifferentValueTypes(t *testing.T) {
	c := New(time.Hour)

	tests := []struct {
		value any
		name  string
		key   string
	}{
		{"test", "string", "str"},
		{42, "int", "int"},
		{3.14, "float", "float"},
		{true, "bool", "bool"},
		{[]int{1, 2, 3}, "slice", "slice"},
		{map[string]int{"a": 1}, "map", "map"},
		{struct{ Name string }{"test"}, "struct", "struct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Set(tt.key, tt.value)
			val, found := c.Get(tt.key)
			if !found {
				t.Fatalf("expected to find %s", tt.key)
			}
			if val == nil {
				t.Errorf("expected non-nil value for %s", tt.key)
			}
		})
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(time.Hour)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Set("shared", n)
		}(i)
		go func() {
			defer wg.Done()
			c.Get("shared")
		}()
	}
	wg.Wait()

	// Later write wins; any of the written values is acceptable
	val, found := c.Get("shared")
	if !found {
		t.Fatal("expected shared key to be present")
	}
	if _, ok := val.(int); !ok {
		t.Errorf("expected int value, got %T", val)
	}
}
