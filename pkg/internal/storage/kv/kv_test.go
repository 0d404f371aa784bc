package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestMemoryKVRoundTrip 内存实现的读写删.
func TestMemoryKVRoundTrip(t *testing.T) {
	ctx := context.Background()

	store, err := NewMemoryKV(ctx, nil)
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}

	exists, _ := store.Exists(ctx, "k")
	if !exists {
		t.Error("expected key to exist")
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

// TestMemoryKVTTL 过期键按不存在处理.
func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()

	store, _ := NewMemoryKV(ctx, nil)

	// TTL 编码精度为秒（向下取整），1ns 的 TTL 落在当前秒，读取时即已过期；
	// ttl<=0 表示不过期，不能用来构造过期值
	if err := store.Set(ctx, "ephemeral", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := store.Set(ctx, "live", []byte("y"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := store.Get(ctx, "ephemeral"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired key: expected ErrNotFound, got %v", err)
	}

	if got, err := store.Get(ctx, "live"); err != nil || string(got) != "y" {
		t.Errorf("live key: got %q err=%v", got, err)
	}
}

// TestTTLEncodeDecode TTL 包装的编解码往返.
func TestTTLEncodeDecode(t *testing.T) {
	raw := []byte("payload")

	encoded, wrapped, err := encodeWithTTL(raw, time.Minute)
	if err != nil {
		t.Fatalf("encodeWithTTL: %v", err)
	}

	if !wrapped {
		t.Fatal("expected value to be wrapped")
	}

	v, expired, wasWrapped, err := decodeWithTTL(encoded, time.Now())
	if err != nil {
		t.Fatalf("decodeWithTTL: %v", err)
	}

	if expired || !wasWrapped || string(v) != "payload" {
		t.Errorf("decode: v=%q expired=%v wrapped=%v", v, expired, wasWrapped)
	}

	// 已过期
	_, expired, _, _ = decodeWithTTL(encoded, time.Now().Add(2*time.Minute))
	if !expired {
		t.Error("expected value to be expired")
	}

	// 未包装的值原样返回
	v, expired, wasWrapped, _ = decodeWithTTL([]byte("plain"), time.Now())
	if expired || wasWrapped || string(v) != "plain" {
		t.Errorf("plain decode: v=%q expired=%v wrapped=%v", v, expired, wasWrapped)
	}
}

// TestRegisteredTypes 工厂注册表至少包含内存实现.
func TestRegisteredTypes(t *testing.T) {
	found := false

	for _, typ := range GetRegisteredKVTypes() {
		if typ == KVTypeMemory {
			found = true
		}
	}

	if !found {
		t.Error("memory KV factory not registered")
	}
}
