package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d", tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("a", 1)
	m.Set("b", 2)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	m.Delete("a")
	if m.Has("a") {
		t.Error("a should be deleted")
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should return false")
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("k", "first") {
		t.Fatal("first SetIfAbsent should store")
	}
	if m.SetIfAbsent("k", "second") {
		t.Fatal("second SetIfAbsent should not store")
	}
	if v, _ := m.Get("k"); v != "first" {
		t.Errorf("Get(k) = %q, want first", v)
	}
}

func TestPop(t *testing.T) {
	m := New[int]()
	m.Set("x", 42)

	v, ok := m.Pop("x")
	if !ok || v != 42 {
		t.Errorf("Pop(x) = (%d, %v), want (42, true)", v, ok)
	}
	if _, ok := m.Pop("x"); ok {
		t.Error("second Pop should return false")
	}
}

func TestRangeStopsEarly(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 10
	})
	if visited != 10 {
		t.Errorf("visited %d entries, want 10", visited)
	}
}

func TestDrain(t *testing.T) {
	m := NewWithShards[int](4)
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	got := m.Drain()
	if len(got) != 50 {
		t.Errorf("Drain() returned %d values, want 50", len(got))
	}
	if m.Count() != 0 {
		t.Errorf("Count() after Drain = %d, want 0", m.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				if _, ok := m.Get(key); !ok {
					t.Errorf("Get(%s) missing right after Set", key)
				}
				if i%2 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if m.Count() != 8*100 {
		t.Errorf("Count() = %d, want %d", m.Count(), 8*100)
	}
}
