package storage

import (
	"bytes"
	"context"
	"testing"

	"plantmanager/internal/plant"
)

// testKVStore exercises the plant.KVStore contract against store.
func testKVStore(t *testing.T, store plant.KVStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		got, ok, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok || got != nil {
			t.Errorf("Get() = %q, %v, want nil, false", got, ok)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		want := []byte(`{"1":{"data":{"id":"1"}}}`)
		if err := store.Set(ctx, plant.DefaultStorageKey, want); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := store.Get(ctx, plant.DefaultStorageKey)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || !bytes.Equal(got, want) {
			t.Errorf("Get() = %q, %v, want %q, true", got, ok, want)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		if err := store.Set(ctx, "k", []byte("first")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := store.Set(ctx, "k", []byte("second")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, _, err := store.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(got) != "second" {
			t.Errorf("Get() = %q, want %q", got, "second")
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		if err := store.Set(ctx, "gone", []byte("x")); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		for i := 0; i < 2; i++ {
			if err := store.Delete(ctx, "gone"); err != nil {
				t.Fatalf("Delete() #%d error = %v", i+1, err)
			}
		}
		if _, ok, _ := store.Get(ctx, "gone"); ok {
			t.Error("Get() found deleted key")
		}
	})

	t.Run("empty value", func(t *testing.T) {
		if err := store.Set(ctx, "empty", []byte{}); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, ok, err := store.Get(ctx, "empty")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !ok || len(got) != 0 {
			t.Errorf("Get() = %q, %v, want empty, true", got, ok)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	testKVStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("original")
	if err := store.Set(ctx, "k", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'X'

	got, _, _ := store.Get(ctx, "k")
	if string(got) != "original" {
		t.Errorf("Get() = %q, stored value aliased caller's slice", got)
	}

	got[0] = 'Y'
	again, _, _ := store.Get(ctx, "k")
	if string(again) != "original" {
		t.Errorf("Get() = %q, returned slice aliases stored value", again)
	}
}
