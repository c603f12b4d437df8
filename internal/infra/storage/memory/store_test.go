package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"kincore/internal/storage/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Put(ctx, "state", []byte(`{"version":"2.0"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"version":"2.0"}` {
		t.Fatalf("payload = %s", got)
	}

	if err := s.Put(ctx, "state", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx, "state")
	if string(got) != "v2" {
		t.Fatalf("overwrite not visible: %s", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	s := New()
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

func TestListFiltersByPrefix(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, k := range []string{"state", "state.backup.2", "state.backup.1", "other"} {
		_ = s.Put(ctx, k, []byte("x"))
	}

	keys, err := s.List(ctx, "state.backup.")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"state.backup.1", "state.backup.2"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestStoredPayloadIsIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	payload := []byte("abc")
	_ = s.Put(ctx, "state", payload)
	payload[0] = 'z'

	got, _ := s.Get(ctx, "state")
	if string(got) != "abc" {
		t.Fatalf("store shares caller's buffer: %s", got)
	}
	got[0] = 'z'
	again, _ := s.Get(ctx, "state")
	if string(again) != "abc" {
		t.Fatalf("returned buffer aliases stored payload: %s", again)
	}
}
