package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestCache_SetGetExpire(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(clock.Now)

	c.Set("k", "v", time.Minute)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected v, got %q ok=%v", v, ok)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to be expired")
	}

	c.deleteExpired()
	if c.Len() != 0 {
		t.Errorf("expected GC to drop expired entry, len=%d", c.Len())
	}
}

func TestCache_CompareAndDelete(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(clock.Now)
	c.Set("token", "abc", time.Hour)

	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"wrong value", "xyz", false},
		{"matching value", "abc", true},
		{"already consumed", "abc", false},
	}
	for _, tt := range tests {
		if got := c.CompareAndDelete("token", tt.value); got != tt.want {
			t.Errorf("%s: CompareAndDelete = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCache_CompareAndDeleteExpired(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := newCache(clock.Now)
	c.Set("token", "abc", time.Second)

	clock.t = clock.t.Add(time.Minute)
	if c.CompareAndDelete("token", "abc") {
		t.Error("expired entry must not be consumable")
	}
}

func TestCache_CloseIsIdempotent(t *testing.T) {
	c := NewCache()
	c.Close()
	c.Close()
}
