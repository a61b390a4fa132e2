package store

import (
	"math"
	"path/filepath"
	"sync"
	"time"
)

// accessWeight and modifyWeight are added to a file's score every time it is
// opened or detected as modified; decayHalfLife controls how fast that
// weight fades so a single stale hit years ago stops outscoring yesterday's
// activity. Spec.md leaves the exact curve implementation-defined; this one
// only needs to satisfy two orderings: recent beats old at equal count, and
// modified beats unmodified at equal count (verified in frecency_test.go).
const (
	accessWeight  = 100
	modifyWeight  = 100
	decayHalfLife = 14 * 24 * time.Hour
	maxScore      = 10_000
)

type fileFrecency struct {
	AccessScore float64
	AccessTime  int64
	ModScore    float64
	ModTime     int64
}

// frecencySnapshot is the gob-serializable form of FrecencyStore's state.
type frecencySnapshot struct {
	Files map[uint64]fileFrecency
}

// FrecencyStore tracks per-file access and modification frecency, scoped by
// absolute path hash. Scores decay exponentially with a fixed half-life so
// AccessScore/ModificationScore can be read cheaply without a background
// sweep, mirroring the teacher's lazy-expiry cache entries.
type FrecencyStore struct {
	mu    sync.RWMutex
	files map[uint64]fileFrecency

	snapshotPath string
	stop         chan struct{}
	stopOnce     sync.Once
}

// NewFrecencyStore loads any existing snapshot at snapshotPath (if
// non-empty) and starts a background snapshot loop on interval.
func NewFrecencyStore(snapshotPath string, interval time.Duration) (*FrecencyStore, error) {
	fs := &FrecencyStore{
		files:        make(map[uint64]fileFrecency),
		snapshotPath: snapshotPath,
		stop:         make(chan struct{}),
	}

	var snap frecencySnapshot
	if err := loadFrom(snapshotPath, &snap); err != nil {
		return nil, err
	}
	if snap.Files != nil {
		fs.files = snap.Files
	}

	go snapshotLoop(interval, fs.stop, func() { _ = fs.Save() })
	return fs, nil
}

// Save snapshots the current state to disk immediately.
func (fs *FrecencyStore) Save() error {
	fs.mu.RLock()
	snap := frecencySnapshot{Files: fs.files}
	fs.mu.RUnlock()
	return snapshotTo(fs.snapshotPath, snap)
}

// Close stops the background snapshot loop and flushes once more.
func (fs *FrecencyStore) Close() error {
	fs.stopOnce.Do(func() { close(fs.stop) })
	return fs.Save()
}

// TrackAccess records that path was opened, boosting its access score.
func (fs *FrecencyStore) TrackAccess(path string) {
	key := pathKey(path)
	ts := now()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry := fs.files[key]
	entry.AccessScore = decay(entry.AccessScore, entry.AccessTime, ts) + accessWeight
	if entry.AccessScore > maxScore {
		entry.AccessScore = maxScore
	}
	entry.AccessTime = ts
	fs.files[key] = entry
}

// TrackModification records that path changed on disk, boosting its
// modification score.
func (fs *FrecencyStore) TrackModification(path string) {
	key := pathKey(path)
	ts := now()

	fs.mu.Lock()
	defer fs.mu.Unlock()
	entry := fs.files[key]
	entry.ModScore = decay(entry.ModScore, entry.ModTime, ts) + modifyWeight
	if entry.ModScore > maxScore {
		entry.ModScore = maxScore
	}
	entry.ModTime = ts
	fs.files[key] = entry
}

// AccessScore returns path's current, decayed access frecency as an
// integer, matching the FileItem.access_frecency_score contract.
func (fs *FrecencyStore) AccessScore(path string) int32 {
	key := pathKey(path)
	ts := now()

	fs.mu.RLock()
	entry, ok := fs.files[key]
	fs.mu.RUnlock()
	if !ok {
		return 0
	}
	return int32(decay(entry.AccessScore, entry.AccessTime, ts))
}

// ModificationScore returns path's current, decayed modification frecency.
func (fs *FrecencyStore) ModificationScore(path string) int32 {
	key := pathKey(path)
	ts := now()

	fs.mu.RLock()
	entry, ok := fs.files[key]
	fs.mu.RUnlock()
	if !ok {
		return 0
	}
	return int32(decay(entry.ModScore, entry.ModTime, ts))
}

// Forget drops all frecency state for path, used when the watcher reports a
// removal so stale scores don't linger for files that no longer exist.
func (fs *FrecencyStore) Forget(path string) {
	key := pathKey(path)
	fs.mu.Lock()
	delete(fs.files, key)
	fs.mu.Unlock()
}

// HealthCheck reports entry counts and on-disk size.
func (fs *FrecencyStore) HealthCheck() Health {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return Health{
		Path:     fs.snapshotPath,
		DiskSize: diskSize(fs.snapshotPath),
		EntryCounts: map[string]int{
			"file_entries": len(fs.files),
		},
	}
}

// decay applies exponential half-life decay to score based on elapsed time
// since lastTs. A zero lastTs (never set) decays to zero.
func decay(score float64, lastTs, nowTs int64) float64 {
	if score <= 0 || lastTs == 0 {
		return 0
	}
	elapsed := time.Duration(nowTs-lastTs) * time.Second
	if elapsed <= 0 {
		return score
	}
	halfLives := float64(elapsed) / float64(decayHalfLife)
	return score * math.Pow(0.5, halfLives)
}

// DefaultFrecencySnapshotPath joins a project's state directory with the
// frecency store's snapshot file name.
func DefaultFrecencySnapshotPath(stateDir string) string {
	return filepath.Join(stateDir, "frecency.gob")
}
