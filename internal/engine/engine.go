// Package engine is the facade spec.md §6 describes: one composition root
// that owns the file index, the background scanner and watcher, the
// frecency/history stores, and the mmap cache, and exposes the picker/grep
// operations an editor or CLI front-end calls. Grounded on the teacher's
// cmd/lci + internal/server composition-root shape (one type wiring every
// subsystem together behind a small set of public methods) and on
// spec.md §5's reader/writer isolation: a single RWMutex guards the
// picker's live subsystems (index, watcher, git root), separate from the
// frecency/history stores' own internal locking, so a search never blocks
// behind a history write.
package engine

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/standardbeagle/fff/internal/config"
	"github.com/standardbeagle/fff/internal/debug"
	engerrors "github.com/standardbeagle/fff/internal/errors"
	"github.com/standardbeagle/fff/internal/fileindex"
	"github.com/standardbeagle/fff/internal/gitstatus"
	"github.com/standardbeagle/fff/internal/grep"
	"github.com/standardbeagle/fff/internal/mmapcache"
	"github.com/standardbeagle/fff/internal/picker"
	"github.com/standardbeagle/fff/internal/queryparser"
	"github.com/standardbeagle/fff/internal/store"
	"github.com/standardbeagle/fff/internal/watcher"
	"github.com/standardbeagle/fff/pkg/pathutil"
)

// PickerOptions configures one FuzzySearchFiles call. MaxThreads is accepted
// for API fidelity with spec.md §6 but unused: the matcher's own sequential/
// parallel threshold (internal/picker, internal/constraints) already governs
// when a search fans out, rather than letting each caller tune a thread
// count per call.
type PickerOptions struct {
	MaxThreads                int
	CurrentFile               string
	ComboBoostScoreMultiplier int32
	MinComboCount             uint32
	PageIndex                 int
	PageSize                  int
}

// SearchResult is the picker's ranked page plus the totals a caller needs
// to render pagination and the cursor jump a trailing :line:col carries.
type SearchResult struct {
	Items        []*fileindex.FileItem
	Scores       []picker.Score
	TotalMatched int
	TotalFiles   int
	Location     *queryparser.Location
}

// GrepOptions configures one LiveGrep call. A zero or negative MaxFileSize,
// MaxMatchesPerFile or PageSize selects 10 MiB, 200 or 50 respectively;
// SmartCase is used as given, so its zero value turns smart case off.
type GrepOptions struct {
	FileOffset        int
	PageSize          int
	MaxFileSize       int64
	MaxMatchesPerFile int
	SmartCase         bool
	Mode              string // "plain" | "regex" | "fuzzy"
	TimeBudgetMs      int
}

// HealthReport is health_check's structured status.
type HealthReport struct {
	IndexedFiles int
	Scanning     bool
	GitRoot      string
	HasGitRoot   bool
	Frecency     store.Health
	History      store.Health
}

// Engine is the process-wide facade: index + watcher + stores + mmap cache
// for one project root.
type Engine struct {
	mu      sync.RWMutex // guards root/cfg/idx/watch/gitRoot/scanner swaps
	root    string
	cfg     *config.Config
	idx     *fileindex.Index
	scanner *fileindex.Scanner
	watch   *watcher.Watcher
	gitRoot string
	hasGit  bool
	mmap    *mmapcache.Cache

	scanning    atomic.Bool
	scannedOnce atomic.Bool

	frecMu   sync.RWMutex
	frecency *store.FrecencyStore

	histMu  sync.RWMutex
	tracker *store.QueryTracker

	stopOnce sync.Once
}

// New creates an Engine rooted at root, loading its .fff.kdl/.fff.toml
// config (or defaults). Call InitFilePicker to begin scanning and watching;
// call InitDB before any search call that should use frecency/history.
func New(root string) (*Engine, error) {
	absRoot, err := pathutil.Canonicalize(root)
	if err != nil {
		return nil, engerrors.NewFileError("canonicalize", root, err)
	}
	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, engerrors.NewConfigError("root", absRoot, err)
	}
	return &Engine{
		root: absRoot,
		cfg:  cfg,
		idx:  fileindex.NewIndex(),
		mmap: mmapcache.New(),
	}, nil
}

// InitDB opens the frecency and history stores at the given snapshot paths.
// unsafeNoLock is accepted for spec.md §6 fidelity ("no-lock / no-sync
// flags for environments that accept weaker durability") but has no effect
// here: the stores are in-memory maps with periodic gob snapshots (see
// internal/store), so there is no lock-file mode to relax in the first
// place.
func (e *Engine) InitDB(frecencyPath, historyPath string, unsafeNoLock bool) error {
	frec, err := store.NewFrecencyStore(frecencyPath, 30*time.Second)
	if err != nil {
		return engerrors.NewStoreError("frecency", "open", err)
	}
	tracker, err := store.NewQueryTracker(historyPath, 30*time.Second)
	if err != nil {
		frec.Close()
		return engerrors.NewStoreError("history", "open", err)
	}

	e.frecMu.Lock()
	e.frecency = frec
	e.frecMu.Unlock()

	e.histMu.Lock()
	e.tracker = tracker
	e.histMu.Unlock()
	return nil
}

// InitFilePicker builds the scanner, runs the first scan synchronously
// enough to populate the index, then starts the background watcher.
// Matches spec.md §6's init_file_picker: "create the picker ... spawns
// background scan + watcher" — the initial scan itself runs inline here
// (callers that want it off the calling goroutine should call it from their
// own goroutine and poll WaitForInitialScan).
func (e *Engine) InitFilePicker() error {
	e.mu.Lock()
	root := e.root
	cfg := e.cfg
	e.mu.Unlock()

	scanner, err := fileindex.NewScanner(fileindex.Options{
		Root:         root,
		IgnoreFiles:  []string{".gitignore", ".ignore", ".fffignore"},
		ExcludeGlobs: cfg.Exclude,
		IncludeGlobs: cfg.Include,
		MaxFileSize:  cfg.MaxFileSize,
	})
	if err != nil {
		return engerrors.NewScanError("init", root, err)
	}

	e.mu.Lock()
	e.scanner = scanner
	e.mu.Unlock()

	if err := e.ScanFiles(); err != nil {
		return err
	}

	return e.startWatcher()
}

// RestartIndexInPath tears down the current watcher and rebuilds the
// picker rooted at a new path, per spec.md §6's restart_index_in_path.
func (e *Engine) RestartIndexInPath(root string) error {
	e.StopBackgroundMonitor()

	absRoot, err := pathutil.Canonicalize(root)
	if err != nil {
		return engerrors.NewFileError("canonicalize", root, err)
	}
	cfg, err := config.Load(absRoot)
	if err != nil {
		return engerrors.NewConfigError("root", absRoot, err)
	}

	e.mu.Lock()
	e.root = absRoot
	e.cfg = cfg
	e.idx = fileindex.NewIndex()
	e.gitRoot = ""
	e.hasGit = false
	e.mu.Unlock()
	e.scannedOnce.Store(false)

	e.mmap.Close()
	e.mmap = mmapcache.New()

	return e.InitFilePicker()
}

func (e *Engine) startWatcher() error {
	e.mu.RLock()
	root := e.root
	e.mu.RUnlock()

	w, err := watcher.New(root, watcher.Callbacks{
		OnFileCreated: e.onFileCreatedOrChanged,
		OnFileChanged: e.onFileCreatedOrChanged,
		OnFileRemoved: e.onFileRemoved,
		OnGitRefresh:  func() { _ = e.RefreshGitStatus() },
		OnFullRescan:  func() { _ = e.ScanFiles() },
		OnSelfCheck:   func() { debug.LogWatch("self-check tick for %s", root) },
	})
	if err != nil {
		return engerrors.NewWatchError(root, err)
	}
	if err := w.Start(); err != nil {
		return engerrors.NewWatchError(root, err)
	}

	e.mu.Lock()
	e.watch = w
	e.mu.Unlock()
	return nil
}

func (e *Engine) onFileCreatedOrChanged(absPath string) {
	e.mu.RLock()
	root := e.root
	e.mu.RUnlock()

	rel := pathutil.ToRelative(absPath, root)
	item := e.rebuildItem(absPath, rel)
	if item == nil {
		e.onFileRemoved(absPath)
		return
	}
	e.idx.Upsert(item)
	e.mmap.Invalidate(absPath)
	e.frecMu.RLock()
	if e.frecency != nil {
		e.frecency.TrackModification(rel)
	}
	e.frecMu.RUnlock()
}

func (e *Engine) onFileRemoved(absPath string) {
	e.mu.RLock()
	root := e.root
	e.mu.RUnlock()
	rel := pathutil.ToRelative(absPath, root)
	e.idx.Remove(rel)
	e.mmap.Invalidate(absPath)
	e.frecMu.RLock()
	if e.frecency != nil {
		e.frecency.Forget(rel)
	}
	e.frecMu.RUnlock()
}

// ScanFiles triggers a full rescan, walking the tree, recomputing git
// status, and replacing the index wholesale. Safe to call concurrently with
// searches, which only ever read Index.Snapshot().
func (e *Engine) ScanFiles() error {
	e.mu.RLock()
	scanner := e.scanner
	root := e.root
	e.mu.RUnlock()
	if scanner == nil {
		return fmt.Errorf("engine: file picker not initialized")
	}

	e.scanning.Store(true)
	defer e.scanning.Store(false)

	items, err := scanner.Scan()
	if err != nil {
		return engerrors.NewScanError("scan", root, err)
	}

	if repoRoot, ok := gitstatus.FindRepoRoot(root); ok {
		e.mu.Lock()
		e.gitRoot = repoRoot
		e.hasGit = true
		e.mu.Unlock()

		statuses, err := gitstatus.Scan(repoRoot)
		if err != nil {
			debug.LogScan("git status scan failed for %s: %v", repoRoot, err)
		} else {
			for _, it := range items {
				if status, ok := statuses[it.Path]; ok {
					it.GitStatusBits = status
					it.GitTracked = true
				}
			}
		}
	}

	e.idx.Reset(items)
	e.scannedOnce.Store(true)
	return nil
}

// WaitForInitialScan polls the scanning flag with exponential backoff
// (1ms -> 50ms capped), per spec.md §5, returning false on timeout.
func (e *Engine) WaitForInitialScan(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	backoff := time.Millisecond
	for {
		if e.scannedOnce.Load() && !e.scanning.Load() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 50*time.Millisecond {
			backoff = 50 * time.Millisecond
		}
	}
}

// rebuildItem re-derives one FileItem from disk for an add/modify event. It
// returns nil when the path no longer qualifies (deleted, now ignored,
// outside size bounds), signaling the caller to treat it as a removal.
func (e *Engine) rebuildItem(absPath, rel string) *fileindex.FileItem {
	e.mu.RLock()
	scanner := e.scanner
	e.mu.RUnlock()
	if scanner == nil {
		return nil
	}
	return scanner.AcceptPath(absPath)
}

// FuzzySearchFiles runs the picker dialect's query parser, then the
// constraint/fuzzy scoring pipeline, over the current index snapshot.
func (e *Engine) FuzzySearchFiles(query string, opts PickerOptions) (SearchResult, error) {
	parsed := queryparser.Parse(query, queryparser.Picker)

	fuzzyLen := len(parsed.FuzzyQuery)
	maxTypos := fuzzyLen / 4
	if maxTypos < 2 {
		maxTypos = 2
	}
	if maxTypos > 6 {
		maxTypos = 6
	}

	e.frecMu.RLock()
	frec := e.frecency
	e.frecMu.RUnlock()
	e.histMu.RLock()
	tracker := e.tracker
	e.histMu.RUnlock()

	ctx := picker.Context{
		RawQuery:                  query,
		Parsed:                    parsed,
		MaxTypos:                  maxTypos,
		CurrentFile:               opts.CurrentFile,
		Project:                   e.projectKey(),
		ComboBoostScoreMultiplier: opts.ComboBoostScoreMultiplier,
		MinComboCount:             opts.MinComboCount,
		Offset:                    opts.PageIndex,
		Limit:                     opts.PageSize,
		Frecency:                  frec,
		Tracker:                   tracker,
	}

	items, scores, total := picker.MatchAndScoreFiles(e.idx.Snapshot(), ctx)
	return SearchResult{
		Items:        items,
		Scores:       scores,
		TotalMatched: total,
		TotalFiles:   e.idx.Len(),
		Location:     parsed.Location,
	}, nil
}

// LiveGrep runs the grep dialect's query parser, then dispatches to
// internal/grep's plain/regex/fuzzy search over the current index snapshot.
func (e *Engine) LiveGrep(query string, opts GrepOptions) (grep.Result, error) {
	parsed := queryparser.Parse(query, queryparser.Grep)

	mode := grep.PlainText
	switch opts.Mode {
	case "regex":
		mode = grep.Regex
	case "fuzzy":
		mode = grep.Fuzzy
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	maxMatches := opts.MaxMatchesPerFile
	if maxMatches <= 0 {
		maxMatches = 200
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	e.frecMu.RLock()
	frec := e.frecency
	e.frecMu.RUnlock()

	ctx := grep.Context{
		Parsed:   parsed,
		Frecency: frec,
		MMap:     e.mmap,
	}
	goOpts := grep.Options{
		MaxFileSize:       maxFileSize,
		MaxMatchesPerFile: maxMatches,
		SmartCase:         opts.SmartCase,
		FileOffset:        opts.FileOffset,
		PageLimit:         pageSize,
		Mode:              mode,
		TimeBudget:        time.Duration(opts.TimeBudgetMs) * time.Millisecond,
	}

	return grep.Search(e.idx.Snapshot(), ctx, goOpts), nil
}

// TrackAccess records that path (absolute or already-relative) was opened,
// for both the access-frecency signal and query/path combo tracking.
func (e *Engine) TrackAccess(path string) {
	rel := e.toProjectRelative(path)
	e.frecMu.RLock()
	if e.frecency != nil {
		e.frecency.TrackAccess(rel)
	}
	e.frecMu.RUnlock()
}

// TrackQueryCompletion records that query opened path, updating the combo
// counter the picker scorer's combo boost reads.
func (e *Engine) TrackQueryCompletion(query, path string) {
	// The picker compares the tracked path with FileItem.Path, which is
	// absolute, so store the absolute form.
	abs := e.toProjectRelative(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.projectKey(), abs)
	}
	e.histMu.RLock()
	if e.tracker != nil {
		e.tracker.TrackQueryCompletion(e.projectKey(), query, abs)
	}
	e.histMu.RUnlock()
	e.TrackAccess(path)
}

// TrackGrepQuery records query in the grep history FIFO.
func (e *Engine) TrackGrepQuery(query string) {
	e.histMu.RLock()
	if e.tracker != nil {
		e.tracker.TrackGrepQuery(e.projectKey(), query)
	}
	e.histMu.RUnlock()
}

// HistoricalQuery returns the picker's nth-most-recent query.
func (e *Engine) HistoricalQuery(offset int) (string, bool) {
	e.histMu.RLock()
	defer e.histMu.RUnlock()
	if e.tracker == nil {
		return "", false
	}
	return e.tracker.HistoricalQuery(e.projectKey(), offset)
}

// HistoricalGrepQuery returns grep's nth-most-recent query.
func (e *Engine) HistoricalGrepQuery(offset int) (string, bool) {
	e.histMu.RLock()
	defer e.histMu.RUnlock()
	if e.tracker == nil {
		return "", false
	}
	return e.tracker.HistoricalGrepQuery(e.projectKey(), offset)
}

// RefreshGitStatus re-runs a git-status pass and merges it into the index,
// without touching the rest of the scan state.
func (e *Engine) RefreshGitStatus() error {
	e.mu.RLock()
	root := e.root
	e.mu.RUnlock()

	repoRoot, ok := gitstatus.FindRepoRoot(root)
	if !ok {
		return nil
	}
	e.mu.Lock()
	e.gitRoot = repoRoot
	e.hasGit = true
	e.mu.Unlock()

	statuses, err := gitstatus.Scan(repoRoot)
	if err != nil {
		return engerrors.NewGitError("status", err)
	}
	e.idx.UpdateGitStatus(statuses)
	return nil
}

// GetScanProgress reports the current scanner counters.
func (e *Engine) GetScanProgress() fileindex.Progress {
	e.mu.RLock()
	scanner := e.scanner
	e.mu.RUnlock()
	if scanner == nil {
		return fileindex.Progress{}
	}
	return scanner.Progress()
}

// IsScanning reports whether a scan is currently in flight.
func (e *Engine) IsScanning() bool { return e.scanning.Load() }

// GetGitRoot returns the discovered git repository root, if any.
func (e *Engine) GetGitRoot() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gitRoot, e.hasGit
}

// StopBackgroundMonitor stops the watcher without tearing down the index or
// stores, so a caller can restart just the watcher later.
func (e *Engine) StopBackgroundMonitor() error {
	e.mu.Lock()
	w := e.watch
	e.watch = nil
	e.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}

// CleanupFilePicker tears down the watcher, stores, and mmap cache. The
// Engine is not usable afterward.
func (e *Engine) CleanupFilePicker() error {
	var multi []error
	e.stopOnce.Do(func() {
		if err := e.StopBackgroundMonitor(); err != nil {
			multi = append(multi, err)
		}
		e.mmap.Close()

		e.frecMu.Lock()
		if e.frecency != nil {
			if err := e.frecency.Close(); err != nil {
				multi = append(multi, err)
			}
		}
		e.frecMu.Unlock()

		e.histMu.Lock()
		if e.tracker != nil {
			if err := e.tracker.Close(); err != nil {
				multi = append(multi, err)
			}
		}
		e.histMu.Unlock()
	})
	if len(multi) == 0 {
		return nil
	}
	return engerrors.NewMultiError(multi)
}

// ShortenPath delegates to pkg/pathutil's cached display helper.
func (e *Engine) ShortenPath(path string, maxSize int, strategy pathutil.ShortenStrategy) string {
	return pathutil.ShortenPath(path, maxSize, strategy)
}

// HealthCheck reports index size, scan state, git root, and store health.
func (e *Engine) HealthCheck() HealthReport {
	gitRoot, hasGit := e.GetGitRoot()

	var frecHealth, histHealth store.Health
	e.frecMu.RLock()
	if e.frecency != nil {
		frecHealth = e.frecency.HealthCheck()
	}
	e.frecMu.RUnlock()
	e.histMu.RLock()
	if e.tracker != nil {
		histHealth = e.tracker.HealthCheck()
	}
	e.histMu.RUnlock()

	return HealthReport{
		IndexedFiles: e.idx.Len(),
		Scanning:     e.IsScanning(),
		GitRoot:      gitRoot,
		HasGitRoot:   hasGit,
		Frecency:     frecHealth,
		History:      histHealth,
	}
}

func (e *Engine) projectKey() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.root
}

func (e *Engine) toProjectRelative(path string) string {
	e.mu.RLock()
	root := e.root
	e.mu.RUnlock()
	return pathutil.ToRelative(path, root)
}
