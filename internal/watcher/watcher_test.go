package watcher

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestIsGitStatusPath(t *testing.T) {
	cases := map[string]bool{
		"/repo/.git/HEAD":        true,
		"/repo/.git/index":       true,
		"/repo/.git/refs/heads/main": true,
		"/repo/.git/hooks/pre-commit": false,
		"/repo/src/main.go":      false,
	}
	for path, want := range cases {
		if got := isGitStatusPath(path); got != want {
			t.Errorf("isGitStatusPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher_NeedsFullRescan(t *testing.T) {
	root := t.TempDir()
	w := &Watcher{root: root}

	small := map[string]fsnotify.Op{filepath.Join(root, "a.go"): fsnotify.Write}
	if w.needsFullRescan(small) {
		t.Error("small batch of ordinary files should not trigger full rescan")
	}

	ignoreChanged := map[string]fsnotify.Op{filepath.Join(root, ".gitignore"): fsnotify.Write}
	if !w.needsFullRescan(ignoreChanged) {
		t.Error("a .gitignore change should trigger full rescan")
	}

	big := make(map[string]fsnotify.Op, RescanBatchThreshold+1)
	for i := 0; i < RescanBatchThreshold+1; i++ {
		big[filepath.Join(root, "f", strconv.Itoa(i))] = fsnotify.Write
	}
	if !w.needsFullRescan(big) {
		t.Error("an oversized batch should trigger full rescan")
	}
}

func TestWatcher_DetectsFileCreateAndModify(t *testing.T) {
	root := t.TempDir()

	var mu sync.Mutex
	var created, changed []string
	done := make(chan struct{}, 4)

	w, err := New(root, Callbacks{
		OnFileCreated: func(p string) {
			mu.Lock()
			created = append(created, p)
			mu.Unlock()
			done <- struct{}{}
		},
		OnFileChanged: func(p string) {
			mu.Lock()
			changed = append(changed, p)
			mu.Unlock()
			done <- struct{}{}
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	target := filepath.Join(root, "new.go")
	if err := os.WriteFile(target, []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher callback")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(created) == 0 && len(changed) == 0 {
		t.Fatal("expected either OnFileCreated or OnFileChanged to fire for a new file")
	}
}
