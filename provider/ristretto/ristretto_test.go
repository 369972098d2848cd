package ristretto

import (
	"sort"
	"testing"
	"time"

	"github.com/unkn0wn-root/hybridcache/provider/local"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{NumCounters: 1000, MaxCost: 100, BufferItems: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for zero config")
	}
}

func TestSetGetDeleteKeys(t *testing.T) {
	s := newStore(t)
	s.Set("a", 1, 0)
	s.Set("b", 2, time.Minute)

	if v, ok := s.Get("a"); !ok || v != 1 {
		t.Fatalf("Get a: ok=%v v=%v", ok, v)
	}
	keys := s.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys: %v", keys)
	}

	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Fatalf("a should be gone")
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("Keys after delete: %v", keys)
	}
}

func TestBacksLocalEngine(t *testing.T) {
	e := local.New(newStore(t))
	e.Add("k", "v", time.Minute)
	if !e.Exists("k") {
		t.Fatalf("k should exist")
	}
	if n := e.Clear(); n != 1 {
		t.Fatalf("Clear removed %d, want 1", n)
	}
	if e.Exists("k") {
		t.Fatalf("k should be cleared")
	}
}
