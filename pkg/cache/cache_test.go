package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/vidvault/pkg/cache"
	"github.com/yeisme/vidvault/pkg/internal/storage/kv"
)

type profile struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	return cache.NewCache(store)
}

// TestSetGet 泛型读写往返.
func TestSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	want := profile{Name: "demo", Count: 3}
	if err := cache.Set(ctx, c, "p:1", want, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := cache.Get[profile](ctx, c, "p:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestGetMiss 未命中返回错误.
func TestGetMiss(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	if _, err := cache.Get[profile](ctx, c, "missing"); err == nil {
		t.Error("expected error for missing key")
	}
}

// TestGetOrSet 未命中时调用 getter 并回填.
func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	calls := 0
	getter := func() ([]byte, error) {
		calls++
		return []byte("jpeg-bytes"), nil
	}

	for range 2 {
		got, err := cache.GetOrSet(ctx, c, "thumb:v1", getter, time.Hour)
		if err != nil {
			t.Fatalf("GetOrSet: %v", err)
		}

		if string(got) != "jpeg-bytes" {
			t.Errorf("got %q", got)
		}
	}

	if calls != 1 {
		t.Errorf("getter called %d times, want 1", calls)
	}
}

// TestDelete 删除后未命中.
func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	_ = cache.Set(ctx, c, "k", profile{Name: "x"}, 0)

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if exists, _ := c.Exists(ctx, "k"); exists {
		t.Error("key still exists after delete")
	}
}
