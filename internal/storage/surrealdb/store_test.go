package surrealdb

import (
	"context"
	"errors"
	"testing"

	"github.com/ydrx/ydrx/internal/interfaces"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"version":3,"users":[]}`)
	if err := store.Put(ctx, "ydrx_db_v1", payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, err := store.Get(ctx, "ydrx_db_v1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("Get = %q, want %q", data, payload)
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("Put one: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("Put two: %v", err)
	}

	data, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("Get = %q, want %q", data, "two")
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, interfaces.ErrBlobNotFound) {
		t.Errorf("Get missing = %v, want ErrBlobNotFound", err)
	}
}

func TestStore_DeleteAndExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	exists, err := store.Exists(ctx, "k")
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; want true", exists, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	exists, _ = store.Exists(ctx, "k")
	if exists {
		t.Error("Exists after delete should be false")
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}
