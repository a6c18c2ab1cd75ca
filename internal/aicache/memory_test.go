package aicache

import (
	"context"
	"testing"
	"time"

	"github.com/storyarc/storyarc/internal/llm"
)

func entry(content string) *Entry {
	return &Entry{Content: content, Usage: llm.Usage{TotalTokens: 10}, CostUSD: 0.001}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Fatal("unexpected hit on empty store")
	}

	if err := s.Set(ctx, "k1", entry("v1"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Content != "v1" || got.CostUSD != 0.001 {
		t.Fatalf("unexpected entry %+v", got)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "k", entry("v"), time.Minute)

	now = now.Add(30 * time.Second)
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("entry should still be live")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
	if s.Len() != 0 {
		t.Fatal("expired entry should be removed on read")
	}
}

func TestMemoryStore_DeletePattern(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Set(ctx, "ai:abc", entry("1"), time.Hour)
	_ = s.Set(ctx, "ai:def", entry("2"), time.Hour)
	_ = s.Set(ctx, "other:xyz", entry("3"), time.Hour)

	if err := s.DeletePattern(ctx, "ai:*"); err != nil {
		t.Fatalf("DeletePattern: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", s.Len())
	}
	if _, ok, _ := s.Get(ctx, "other:xyz"); !ok {
		t.Fatal("non-matching key must survive")
	}
}

func TestMemoryStore_SweepOnWrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "old", entry("1"), time.Second)
	now = now.Add(time.Hour)
	_ = s.Set(ctx, "new", entry("2"), time.Hour)

	if s.Len() != 1 {
		t.Fatalf("write should sweep dead entries, got %d", s.Len())
	}
}
