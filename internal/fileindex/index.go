package fileindex

import (
	"sort"
	"sync"

	"github.com/standardbeagle/fff/internal/gitstatus"
)

// Index is the collection of FileItems for a project, sorted by relative
// path. Lookup and Remove go through a relative-path map and Upsert
// binary-searches the slice for a new item's position, so the watcher can
// apply single-file add/modify/remove events without a full rescan, mirroring the
// teacher's preference for a single coordinated lock over a live index
// (internal/indexing/master_index.go) rather than a sharded structure.
type Index struct {
	mu    sync.RWMutex
	items []*FileItem
	byRel map[string]int // relative path -> index into items, kept in sync with items
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{byRel: make(map[string]int)}
}

// Reset replaces the index contents wholesale, used after a full rescan.
// items must already be sorted by RelativePath.
func (idx *Index) Reset(items []*FileItem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.items = items
	idx.byRel = make(map[string]int, len(items))
	for i, it := range items {
		idx.byRel[it.RelativePath()] = i
	}
}

// Snapshot returns the current items slice. Callers must treat it as
// read-only; the Index may replace its backing array on the next mutation.
func (idx *Index) Snapshot() []*FileItem {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.items
}

// Len reports the number of indexed files.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// Lookup returns the FileItem for relPath, if indexed.
func (idx *Index) Lookup(relPath string) (*FileItem, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	i, ok := idx.byRel[relPath]
	if !ok {
		return nil, false
	}
	return idx.items[i], true
}

// Upsert inserts item if its path is new, or replaces the existing entry at
// the same path, preserving sort order.
func (idx *Index) Upsert(item *FileItem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if i, ok := idx.byRel[item.RelativePath()]; ok {
		idx.items[i] = item
		return
	}

	pos := sort.Search(len(idx.items), func(i int) bool {
		return idx.items[i].RelativePath() >= item.RelativePath()
	})
	idx.items = append(idx.items, nil)
	copy(idx.items[pos+1:], idx.items[pos:])
	idx.items[pos] = item

	for rel, i := range idx.byRel {
		if i >= pos {
			idx.byRel[rel] = i + 1
		}
	}
	idx.byRel[item.RelativePath()] = pos
}

// Remove deletes the entry at relPath, if present.
func (idx *Index) Remove(relPath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	pos, ok := idx.byRel[relPath]
	if !ok {
		return
	}

	idx.items = append(idx.items[:pos], idx.items[pos+1:]...)
	delete(idx.byRel, relPath)
	for rel, i := range idx.byRel {
		if i > pos {
			idx.byRel[rel] = i - 1
		}
	}
}

// UpdateGitStatus merges a fresh git-status scan into the index in place.
// GitTracked means "covered by this scan", not git's tracked/untracked
// distinction — a file absent from statuses had no reportable status and
// reverts to the zero value, matching matchGitStatus's (tracked=false)
// "clean" fallback in the constraints package.
func (idx *Index) UpdateGitStatus(statuses map[string]gitstatus.Status) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, it := range idx.items {
		if status, ok := statuses[it.Path]; ok {
			it.GitStatusBits = status
			it.GitTracked = true
		} else if it.GitTracked {
			it.GitStatusBits = 0
			it.GitTracked = false
		}
	}
}
