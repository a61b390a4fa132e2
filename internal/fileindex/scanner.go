package fileindex

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Options configures a Scanner. Root is walked recursively; ExcludeGlobs and
// IncludeGlobs are doublestar patterns evaluated against the path relative
// to Root (include wins only when non-empty and matched; exclude always
// wins). MaxFileSize of zero means unbounded.
type Options struct {
	Root         string
	IgnoreFiles  []string // e.g. ".gitignore", ".fffignore", loaded from Root only
	ExcludeGlobs []string
	IncludeGlobs []string
	MaxFileSize  int64
}

// Progress reports scan state for ScanProgress-style polling callers.
type Progress struct {
	ScannedFiles int
	Scanning     bool
}

// Scanner walks a project tree once, producing a sorted []*FileItem.
// Grounded on original_source's scan_filesystem: one goroutine per top-level
// subtree rather than a single sequential walk, since errgroup is already
// the module's parallel-fan-out idiom (internal/constraints.parallelFilter).
type Scanner struct {
	opts    Options
	matcher *Matcher

	scanned  atomic.Int64
	scanning atomic.Bool
}

// NewScanner builds a Scanner, loading opts.IgnoreFiles from opts.Root.
func NewScanner(opts Options) (*Scanner, error) {
	m := NewMatcher()
	for _, name := range opts.IgnoreFiles {
		if err := m.LoadFile(filepath.Join(opts.Root, name)); err != nil {
			return nil, err
		}
	}
	return &Scanner{opts: opts, matcher: m}, nil
}

// AcceptPath re-evaluates a single absolute path against the scanner's
// ignore rules and glob filters, for the watcher's add/modify path: it
// needs the same acceptance decision Scan makes per-file without re-walking
// the whole tree. Returns nil if the path no longer qualifies (missing,
// now ignored, a directory, oversized).
func (s *Scanner) AcceptPath(absPath string) *FileItem {
	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		return nil
	}
	return s.acceptFile(absPath, dirEntryInfo{info: info})
}

// Progress returns the current scan counters.
func (s *Scanner) Progress() Progress {
	return Progress{
		ScannedFiles: int(s.scanned.Load()),
		Scanning:     s.scanning.Load(),
	}
}

// Scan walks opts.Root and returns every accepted file, sorted by relative
// path. It is safe to poll Progress concurrently with a Scan in flight.
func (s *Scanner) Scan() ([]*FileItem, error) {
	s.scanning.Store(true)
	defer s.scanning.Store(false)
	s.scanned.Store(0)

	entries, err := os.ReadDir(s.opts.Root)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var all []*FileItem
	var g errgroup.Group

	for _, e := range entries {
		e := e
		full := filepath.Join(s.opts.Root, e.Name())

		if e.IsDir() {
			if s.isGitDir(e.Name()) {
				continue
			}
			g.Go(func() error {
				items, err := s.walkSubtree(full)
				if err != nil {
					return err
				}
				mu.Lock()
				all = append(all, items...)
				mu.Unlock()
				return nil
			})
			continue
		}

		if item := s.acceptFile(full, e); item != nil {
			all = append(all, item)
			s.scanned.Add(1)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].RelativePath() < all[j].RelativePath() })
	return all, nil
}

func (s *Scanner) walkSubtree(root string) ([]*FileItem, error) {
	var items []*FileItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than aborting the whole scan
		}
		if d.IsDir() {
			if path != root && s.isGitDir(d.Name()) {
				return filepath.SkipDir
			}
			rel, _ := filepath.Rel(s.opts.Root, path)
			if rel != "." && s.matcher.ShouldIgnore(filepath.ToSlash(rel), true) {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if item := s.acceptFile(path, dirEntryInfo{d, info}); item != nil {
			items = append(items, item)
			s.scanned.Add(1)
		}
		return nil
	})
	return items, err
}

// dirEntryInfo adapts a pre-fetched fs.FileInfo to the os.DirEntry-like
// surface acceptFile needs, so both the top-level loop (os.ReadDir) and the
// WalkDir callback (fs.DirEntry) can share one code path.
type dirEntryInfo struct {
	fs.DirEntry
	info fs.FileInfo
}

func (d dirEntryInfo) Info() (fs.FileInfo, error) { return d.info, nil }

func (s *Scanner) acceptFile(absPath string, d interface{ Info() (fs.FileInfo, error) }) *FileItem {
	rel, err := filepath.Rel(s.opts.Root, absPath)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	if s.isGitFile(rel) {
		return nil
	}
	if s.matcher.ShouldIgnore(rel, false) {
		return nil
	}
	if !s.globAccept(rel) {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		return nil
	}
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		return nil
	}

	item := NewFileItem(absPath, rel, info.Size(), info.ModTime().Unix())
	if isBinaryByExtension(rel) {
		item.IsBinary = true
	} else {
		item.IsBinary = s.sniffBinary(absPath, info.Size())
	}
	return item
}

func (s *Scanner) globAccept(rel string) bool {
	for _, pat := range s.opts.ExcludeGlobs {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	if len(s.opts.IncludeGlobs) == 0 {
		return true
	}
	for _, pat := range s.opts.IncludeGlobs {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// sniffBinary reads up to 512 bytes to apply the magic-number/NUL-byte
// heuristic when the extension alone didn't already classify the file.
func (s *Scanner) sniffBinary(path string, size int64) bool {
	if size == 0 {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return IsBinary(path, buf[:n])
}

func (s *Scanner) isGitDir(name string) bool { return name == ".git" }

func (s *Scanner) isGitFile(rel string) bool {
	return rel == ".git" || strings.HasPrefix(rel, ".git/")
}
