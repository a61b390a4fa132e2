// Package store persists frecency scores and query history across process
// restarts. No embedded KV library exists anywhere in the retrieval pack
// (checked every go.mod under _examples for bbolt/badger/pebble/sqlite/lmdb),
// so persistence follows the teacher's internal/cache convention: in-memory
// maps guarded by a mutex, snapshotted to disk periodically rather than
// backed by a transactional store.
package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Health reports the on-disk footprint and entry counts of a persisted
// store, mirroring the teacher's health-check surface.
type Health struct {
	Path        string
	DiskSize    int64
	EntryCounts map[string]int
}

func projectKey(project string) uint64 {
	return xxhash.Sum64String(project)
}

func queryKey(project, query string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(project)
	_, _ = h.WriteString("::")
	_, _ = h.WriteString(query)
	return h.Sum64()
}

func pathKey(path string) uint64 {
	return xxhash.Sum64String(path)
}

func now() int64 {
	return time.Now().Unix()
}

// snapshotTo gob-encodes v to path atomically (write to a temp file, then
// rename), so a crash mid-write never corrupts the last good snapshot.
func snapshotTo(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create snapshot dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("store: create snapshot: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: close snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// loadFrom gob-decodes path into v. A missing file is not an error; the
// store just starts empty.
func loadFrom(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("store: open snapshot: %w", err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("store: decode snapshot: %w", err)
	}
	return nil
}

func diskSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// snapshotLoop ticks on interval, calling save until stop is closed.
func snapshotLoop(interval time.Duration, stop <-chan struct{}, save func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			save()
		case <-stop:
			return
		}
	}
}
