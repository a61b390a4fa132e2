package store

import (
	"path/filepath"
	"sync"
	"time"
)

// MaxHistoryEntries bounds each project's query history FIFO.
const MaxHistoryEntries = 128

// QueryMatchEntry records the file a (project, query) pair last opened and
// how many consecutive times it opened the same file, the combo-boost
// signal consulted by the picker scorer.
type QueryMatchEntry struct {
	FilePath   string
	OpenCount  uint32
	LastOpened int64
}

// historyEntry is one completed query, FIFO-ordered oldest-first.
type historyEntry struct {
	Query     string
	Timestamp int64
}

// queryTrackerSnapshot is the gob-serializable form of QueryTracker's state.
type queryTrackerSnapshot struct {
	QueryFile    map[uint64]QueryMatchEntry
	QueryHistory map[uint64][]historyEntry
	GrepHistory  map[uint64][]historyEntry
}

// QueryTracker associates (project, query) pairs with the file they last
// opened, and keeps a bounded FIFO of recent queries per project for both
// the file picker and live grep. Grounded on query_tracker.rs's three-table
// shape, with blake3+heed replaced by xxhash-keyed maps under one mutex and
// periodic gob snapshots in place of an mdbx environment.
type QueryTracker struct {
	mu sync.RWMutex

	queryFile    map[uint64]QueryMatchEntry
	queryHistory map[uint64][]historyEntry
	grepHistory  map[uint64][]historyEntry

	snapshotPath string
	stop         chan struct{}
	stopOnce     sync.Once
}

// NewQueryTracker loads any existing snapshot at snapshotPath (if non-empty)
// and starts a background snapshot loop on interval.
func NewQueryTracker(snapshotPath string, interval time.Duration) (*QueryTracker, error) {
	qt := &QueryTracker{
		queryFile:    make(map[uint64]QueryMatchEntry),
		queryHistory: make(map[uint64][]historyEntry),
		grepHistory:  make(map[uint64][]historyEntry),
		snapshotPath: snapshotPath,
		stop:         make(chan struct{}),
	}

	var snap queryTrackerSnapshot
	if err := loadFrom(snapshotPath, &snap); err != nil {
		return nil, err
	}
	if snap.QueryFile != nil {
		qt.queryFile = snap.QueryFile
	}
	if snap.QueryHistory != nil {
		qt.queryHistory = snap.QueryHistory
	}
	if snap.GrepHistory != nil {
		qt.grepHistory = snap.GrepHistory
	}

	go snapshotLoop(interval, qt.stop, func() { _ = qt.Save() })
	return qt, nil
}

// Save snapshots the current state to disk immediately.
func (qt *QueryTracker) Save() error {
	qt.mu.RLock()
	snap := queryTrackerSnapshot{
		QueryFile:    qt.queryFile,
		QueryHistory: qt.queryHistory,
		GrepHistory:  qt.grepHistory,
	}
	qt.mu.RUnlock()
	return snapshotTo(qt.snapshotPath, snap)
}

// Close stops the background snapshot loop and flushes once more.
func (qt *QueryTracker) Close() error {
	qt.stopOnce.Do(func() { close(qt.stop) })
	return qt.Save()
}

// TrackQueryCompletion records that query (scoped to project) opened
// filePath. Opening the same file as last time increments the combo
// counter; opening a different file resets it to 1.
func (qt *QueryTracker) TrackQueryCompletion(project, query, filePath string) {
	key := queryKey(project, query)
	ts := now()

	qt.mu.Lock()
	entry, ok := qt.queryFile[key]
	if !ok || entry.FilePath != filePath {
		entry = QueryMatchEntry{FilePath: filePath, OpenCount: 1, LastOpened: ts}
	} else {
		entry.OpenCount++
		entry.LastOpened = ts
	}
	qt.queryFile[key] = entry
	appendHistory(qt.queryHistory, projectKey(project), query, ts)
	qt.mu.Unlock()
}

// LastQueryMatch returns the QueryMatchEntry for (project, query), if any.
func (qt *QueryTracker) LastQueryMatch(project, query string) (QueryMatchEntry, bool) {
	key := queryKey(project, query)
	qt.mu.RLock()
	entry, ok := qt.queryFile[key]
	qt.mu.RUnlock()
	return entry, ok
}

// TrackGrepQuery records query in the grep-specific history for project.
// Grep has no file association, so only history is updated.
func (qt *QueryTracker) TrackGrepQuery(project, query string) {
	qt.mu.Lock()
	appendHistory(qt.grepHistory, projectKey(project), query, now())
	qt.mu.Unlock()
}

// HistoricalQuery returns the file-picker query at offset entries back from
// the most recent (offset=0 is most recent), or ok=false if there aren't
// that many entries.
func (qt *QueryTracker) HistoricalQuery(project string, offset int) (string, bool) {
	qt.mu.RLock()
	defer qt.mu.RUnlock()
	return historyAtOffset(qt.queryHistory, projectKey(project), offset)
}

// HistoricalGrepQuery is HistoricalQuery for the grep history table.
func (qt *QueryTracker) HistoricalGrepQuery(project string, offset int) (string, bool) {
	qt.mu.RLock()
	defer qt.mu.RUnlock()
	return historyAtOffset(qt.grepHistory, projectKey(project), offset)
}

// HealthCheck reports entry counts and on-disk size, mirroring the
// teacher-style health surface used across the module.
func (qt *QueryTracker) HealthCheck() Health {
	qt.mu.RLock()
	defer qt.mu.RUnlock()
	return Health{
		Path:     qt.snapshotPath,
		DiskSize: diskSize(qt.snapshotPath),
		EntryCounts: map[string]int{
			"query_file_entries":         len(qt.queryFile),
			"query_history_entries":      len(qt.queryHistory),
			"grep_query_history_entries": len(qt.grepHistory),
		},
	}
}

func appendHistory(table map[uint64][]historyEntry, key uint64, query string, ts int64) {
	entries := append(table[key], historyEntry{Query: query, Timestamp: ts})
	if len(entries) > MaxHistoryEntries {
		entries = entries[len(entries)-MaxHistoryEntries:]
	}
	table[key] = entries
}

func historyAtOffset(table map[uint64][]historyEntry, key uint64, offset int) (string, bool) {
	entries := table[key]
	if offset < 0 || offset >= len(entries) {
		return "", false
	}
	idx := len(entries) - 1 - offset
	return entries[idx].Query, true
}

// DefaultSnapshotPath joins a project's state directory with the query
// tracker's snapshot file name.
func DefaultSnapshotPath(stateDir string) string {
	return filepath.Join(stateDir, "query_tracker.gob")
}
