package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kincore/pkg/domain"
)

func captureFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func contents(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	return string(data)
}

func writeSnapshot(t *testing.T, root string, snap domain.Snapshot) {
	t.Helper()
	payload, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "state"), payload, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
}

func TestRunReportsMissingSnapshot(t *testing.T) {
	t.Setenv("KINCORE_STORAGE_DRIVER", "fs")
	t.Setenv("KINCORE_STORAGE_FS_ROOT", t.TempDir())

	stdout, stderr := captureFile(t), captureFile(t)
	if code := run(nil, stdout, stderr); code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, contents(t, stderr))
	}
	if !strings.Contains(contents(t, stdout), "no snapshot") {
		t.Fatalf("output = %q", contents(t, stdout))
	}
}

func TestRunSummarizesSnapshot(t *testing.T) {
	root := t.TempDir()
	t.Setenv("KINCORE_STORAGE_DRIVER", "fs")
	t.Setenv("KINCORE_STORAGE_FS_ROOT", root)

	mother := "p1"
	writeSnapshot(t, root, domain.Snapshot{
		Version: domain.SnapshotVersion,
		Persons: []domain.PersonSnapshot{
			{ID: "p1", Name: "Mother", Gender: domain.GenderFemale},
			{ID: "p2", Name: "Child", Gender: domain.GenderOther, MotherID: &mother},
		},
		NextID: 2,
	})

	stdout, stderr := captureFile(t), captureFile(t)
	if code := run(nil, stdout, stderr); code != 0 {
		t.Fatalf("exit = %d, stderr: %s", code, contents(t, stderr))
	}
	out := contents(t, stdout)
	if !strings.Contains(out, "2 persons") || !strings.Contains(out, "1 edges") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunStrictFailsOnRepairs(t *testing.T) {
	root := t.TempDir()
	t.Setenv("KINCORE_STORAGE_DRIVER", "fs")
	t.Setenv("KINCORE_STORAGE_FS_ROOT", root)

	self := "p1"
	writeSnapshot(t, root, domain.Snapshot{
		Version: domain.SnapshotVersion,
		Persons: []domain.PersonSnapshot{
			{ID: "p1", Name: "Loop", Gender: domain.GenderOther, SpouseID: &self},
		},
		NextID: 1,
	})

	stdout, stderr := captureFile(t), captureFile(t)
	if code := run([]string{"-strict"}, stdout, stderr); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(contents(t, stdout), "repaired 1") {
		t.Fatalf("output = %q", contents(t, stdout))
	}
}

func TestRunFailsOnUnrecognizedSnapshot(t *testing.T) {
	root := t.TempDir()
	t.Setenv("KINCORE_STORAGE_DRIVER", "fs")
	t.Setenv("KINCORE_STORAGE_FS_ROOT", root)
	if err := os.WriteFile(filepath.Join(root, "state"), []byte(`{"widgets":[1]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	stdout, stderr := captureFile(t), captureFile(t)
	if code := run(nil, stdout, stderr); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(contents(t, stderr), "unrecognized snapshot format") {
		t.Fatalf("stderr = %q", contents(t, stderr))
	}
}
