package replay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"driftpursuit/vehicles/internal/logging"
)

func writeRecording(t *testing.T, root, name string, modTime time.Time) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := filepath.Join(dir, manifestFile)
	if err := os.WriteFile(manifest, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.Chtimes(manifest, modTime, modTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCleanerKeepsNewestRuns(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	writeRecording(t, root, "alpha", now.Add(-3*time.Hour))
	writeRecording(t, root, "bravo", now.Add(-2*time.Hour))
	writeRecording(t, root, "charlie", now.Add(-time.Hour))
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	cleaner := NewCleaner(root, RetentionPolicy{MaxRuns: 2}, logging.NewTestLogger())
	cleaner.now = func() time.Time { return now }
	stats, err := cleaner.Sweep()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if stats.Runs != 2 || stats.Removed != 1 || stats.Bytes != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if exists(filepath.Join(root, "alpha")) || !exists(filepath.Join(root, "charlie")) {
		t.Fatalf("the oldest run should be the one removed")
	}
	if !exists(filepath.Join(root, "notes.txt")) {
		t.Fatalf("unrelated files must survive")
	}
}

func TestCleanerPrunesByAge(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 7, 16, 9, 0, 0, 0, time.UTC)
	writeRecording(t, root, "old", now.Add(-72*time.Hour))
	writeRecording(t, root, "fresh", now.Add(-time.Hour))
	cleaner := NewCleaner(root, RetentionPolicy{MaxAge: 36 * time.Hour}, logging.NewTestLogger())
	cleaner.now = func() time.Time { return now }
	if _, err := cleaner.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if exists(filepath.Join(root, "old")) || !exists(filepath.Join(root, "fresh")) {
		t.Fatalf("age policy not applied")
	}
}

func TestCleanerToleratesMissingRoot(t *testing.T) {
	cleaner := NewCleaner(filepath.Join(t.TempDir(), "missing"), RetentionPolicy{MaxRuns: 1}, nil)
	if stats, err := cleaner.Sweep(); err != nil || stats.Runs != 0 {
		t.Fatalf("missing root should be empty: %+v %v", stats, err)
	}
}
