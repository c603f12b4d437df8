package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"kincore/internal/storage/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "state", []byte(`{"version":"2.0"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "state")
	if err != nil || string(got) != `{"version":"2.0"}` {
		t.Fatalf("get: %s %v", got, err)
	}
}

func TestPutUpserts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "state", []byte("v1"))
	if err := s.Put(ctx, "state", []byte("v2")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _ := s.Get(ctx, "state")
	if string(got) != "v2" {
		t.Fatalf("payload = %s", got)
	}

	keys, err := s.List(ctx, "")
	if err != nil || len(keys) != 1 {
		t.Fatalf("upsert duplicated the row: %v %v", keys, err)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_ = s.Put(ctx, "state", []byte("x"))

	existed, err := s.Delete(ctx, "state")
	if err != nil || !existed {
		t.Fatalf("delete existing: existed=%v err=%v", existed, err)
	}
	existed, err = s.Delete(ctx, "state")
	if err != nil || existed {
		t.Fatalf("delete missing: existed=%v err=%v", existed, err)
	}
}

func TestListOrdersKeysWithPrefix(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, k := range []string{"state.backup.2", "state", "state.backup.1", "other"} {
		if err := s.Put(ctx, k, []byte("x")); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	keys, err := s.List(ctx, "state.backup.")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"state.backup.1", "state.backup.2"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	ctx := context.Background()

	first, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := first.Put(ctx, "state", []byte("persisted")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()
	got, err := second.Get(ctx, "state")
	if err != nil || string(got) != "persisted" {
		t.Fatalf("get after reopen: %s %v", got, err)
	}
}
