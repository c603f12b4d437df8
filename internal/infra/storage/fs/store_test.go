package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"kincore/internal/storage/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "state", []byte("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "state")
	if err != nil || string(got) != "payload" {
		t.Fatalf("get: %s %v", got, err)
	}

	existed, err := s.Delete(ctx, "state")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := s.Get(ctx, "state"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPutOverwritesAtomically(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "state", []byte("v1"))
	if err := s.Put(ctx, "state", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ := s.Get(ctx, "state")
	if string(got) != "v2" {
		t.Fatalf("payload = %s", got)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(s.root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "state" {
			t.Fatalf("unexpected leftover file %s", e.Name())
		}
	}
}

func TestNestedKeysCreateDirectories(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "trees/main/state", []byte("x")); err != nil {
		t.Fatalf("put nested: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.root, "trees", "main", "state")); err != nil {
		t.Fatalf("nested file missing: %v", err)
	}
	got, err := s.Get(ctx, "trees/main/state")
	if err != nil || string(got) != "x" {
		t.Fatalf("get nested: %s %v", got, err)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	cases := []string{"", "  ", "../escape", "a/../../b", "/abs/path"}
	for _, key := range cases {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("expected rejection for %q", key)
		}
	}
	if clean, err := sanitizeKey("trees/main/state"); err != nil || clean != "trees/main/state" {
		t.Fatalf("valid key mangled: %q %v", clean, err)
	}
}

func TestListSkipsTempFilesAndFiltersPrefix(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, k := range []string{"state", "state.backup.1", "state.backup.2", "other"} {
		if err := s.Put(ctx, k, []byte("x")); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	// Simulate a crashed write.
	if err := os.WriteFile(filepath.Join(s.root, ".tmp-123"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	keys, err := s.List(ctx, "state")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"state", "state.backup.1", "state.backup.2"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestDefaultRoot(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(cwd) }()

	s, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Driver() != core.DriverFilesystem {
		t.Fatalf("driver = %s", s.Driver())
	}
	if _, err := os.Stat(filepath.Join(dir, "kindata")); err != nil {
		t.Fatalf("default root not created: %v", err)
	}
}
