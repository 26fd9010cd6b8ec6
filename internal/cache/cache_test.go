package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(ttl)
	c.now = clock.now
	return c, clock
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	c.Set("a", 1)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected 1, got %v (%v)", v, ok)
	}

	clock.t = clock.t.Add(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expected entry to expire at its deadline")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be dropped on read, got %d", c.Len())
	}
}

func TestCache_DisabledTTL(t *testing.T) {
	c, _ := newTestCache(0)
	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("expected zero ttl to disable caching")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	for _, k := range []string{"posts:1", "posts:2", "post:a", "tags"} {
		c.Set(k, true)
	}

	tests := []struct {
		prefix string
		want   int
		left   int
	}{
		{"posts:", 2, 2},
		{"nothing", 0, 2},
		{"", 2, 0},
	}
	for _, tt := range tests {
		if got := c.DeletePrefix(tt.prefix); got != tt.want {
			t.Errorf("prefix %q: expected %d removed, got %d", tt.prefix, tt.want, got)
		}
		if c.Len() != tt.left {
			t.Errorf("prefix %q: expected %d left, got %d", tt.prefix, tt.left, c.Len())
		}
	}
}

func TestCache_Delete(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set("post:a", 1)
	c.Set("post:ab", 2)

	if !c.Delete("post:a") {
		t.Error("expected present key to report deletion")
	}
	if c.Delete("post:a") {
		t.Error("expected second delete to report nothing removed")
	}
	if _, ok := c.Get("post:ab"); !ok {
		t.Error("expected sibling key to survive")
	}
	if c.TTL() != time.Minute {
		t.Errorf("expected ttl %v, got %v", time.Minute, c.TTL())
	}
}

func TestCache_Cleanup(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	c.Set("short", 1)
	c.SetTTL("long", 2, time.Hour)

	clock.t = clock.t.Add(2 * time.Minute)
	if n := c.Cleanup(); n != 1 {
		t.Errorf("expected 1 swept, got %d", n)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("expected long-lived entry to survive")
	}
}

func TestCache_StartStop(t *testing.T) {
	c := New(time.Millisecond)
	c.Set("a", 1)
	c.Start(context.Background(), time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if c.Len() != 0 {
		t.Errorf("expected janitor to sweep, got %d entries", c.Len())
	}
}

func TestFetch(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for range 3 {
		v, err := Fetch(ctx, c, "k", time.Minute, load)
		if err != nil || v != "value" {
			t.Fatalf("expected value, got %q (%v)", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 load, got %d", calls)
	}
}

func TestFetch_ErrorsNotCached(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected nothing cached, got %d", c.Len())
	}
}

func TestFetch_NilCache(t *testing.T) {
	v, err := Fetch(context.Background(), nil, "k", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Errorf("expected 7, got %d (%v)", v, err)
	}
}
