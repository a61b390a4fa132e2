package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestTracker(t *testing.T) *QueryTracker {
	t.Helper()
	qt, err := NewQueryTracker(filepath.Join(t.TempDir(), "qt.gob"), time.Hour)
	if err != nil {
		t.Fatalf("NewQueryTracker: %v", err)
	}
	t.Cleanup(func() { _ = qt.Close() })
	return qt
}

func TestQueryTracker_ComboCounting(t *testing.T) {
	qt := newTestTracker(t)
	project := "/test/project"
	file := "/test/project/src/main.rs"

	qt.TrackQueryCompletion(project, "main", file)
	entry, ok := qt.LastQueryMatch(project, "main")
	if !ok || entry.OpenCount != 1 {
		t.Fatalf("expected open count 1, got %+v (ok=%v)", entry, ok)
	}

	qt.TrackQueryCompletion(project, "main", file)
	entry, ok = qt.LastQueryMatch(project, "main")
	if !ok || entry.OpenCount != 2 {
		t.Fatalf("expected open count 2, got %+v (ok=%v)", entry, ok)
	}

	other := "/test/project/src/lib.rs"
	qt.TrackQueryCompletion(project, "main", other)
	entry, ok = qt.LastQueryMatch(project, "main")
	if !ok || entry.OpenCount != 1 || entry.FilePath != other {
		t.Fatalf("expected reset to lib.rs count 1, got %+v", entry)
	}
}

func TestQueryTracker_History(t *testing.T) {
	qt := newTestTracker(t)
	project := "/test/project"

	qt.TrackQueryCompletion(project, "first", "/a")
	qt.TrackQueryCompletion(project, "second", "/b")
	qt.TrackQueryCompletion(project, "third", "/c")

	q, ok := qt.HistoricalQuery(project, 0)
	if !ok || q != "third" {
		t.Fatalf("offset 0 = %q, want third", q)
	}
	q, ok = qt.HistoricalQuery(project, 1)
	if !ok || q != "second" {
		t.Fatalf("offset 1 = %q, want second", q)
	}
	if _, ok := qt.HistoricalQuery(project, 10); ok {
		t.Fatal("expected no entry at offset 10")
	}
}

func TestQueryTracker_HistoryCap(t *testing.T) {
	qt := newTestTracker(t)
	project := "/test/project"
	for i := 0; i < MaxHistoryEntries+10; i++ {
		qt.TrackGrepQuery(project, "q")
	}
	qt.mu.RLock()
	n := len(qt.grepHistory[projectKey(project)])
	qt.mu.RUnlock()
	if n != MaxHistoryEntries {
		t.Fatalf("history length = %d, want %d", n, MaxHistoryEntries)
	}
}

func TestQueryTracker_GrepHistorySeparateFromPicker(t *testing.T) {
	qt := newTestTracker(t)
	project := "/test/project"

	qt.TrackQueryCompletion(project, "picker-query", "/a")
	qt.TrackGrepQuery(project, "grep-query")

	pq, _ := qt.HistoricalQuery(project, 0)
	gq, _ := qt.HistoricalGrepQuery(project, 0)
	if pq != "picker-query" || gq != "grep-query" {
		t.Fatalf("picker/grep history crossed: pq=%q gq=%q", pq, gq)
	}
}

func TestQueryTracker_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qt.gob")

	qt, err := NewQueryTracker(path, time.Hour)
	if err != nil {
		t.Fatalf("NewQueryTracker: %v", err)
	}
	qt.TrackQueryCompletion("/proj", "q", "/proj/file.go")
	if err := qt.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := NewQueryTracker(path, time.Hour)
	if err != nil {
		t.Fatalf("reload NewQueryTracker: %v", err)
	}
	defer reloaded.Close()

	entry, ok := reloaded.LastQueryMatch("/proj", "q")
	if !ok || entry.FilePath != "/proj/file.go" {
		t.Fatalf("expected reloaded entry, got %+v (ok=%v)", entry, ok)
	}
}

func TestQueryTracker_HealthCheck(t *testing.T) {
	qt := newTestTracker(t)
	qt.TrackQueryCompletion("/proj", "q", "/proj/file.go")
	h := qt.HealthCheck()
	if h.EntryCounts["query_file_entries"] != 1 {
		t.Fatalf("expected 1 query file entry, got %d", h.EntryCounts["query_file_entries"])
	}
}
