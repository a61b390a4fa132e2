// Package fileindex holds the scanned, path-sorted view of a project: one
// FileItem per tracked file, a binary-search Index over them, a gitignore
// Matcher generalized from the teacher's config package, and a parallel
// scanner that walks the tree once at startup. Grounded on
// original_source/crates/fff-core/src/types.rs's FileItem shape and
// teacher's internal/indexing/master_index.go indexing conventions.
package fileindex

import (
	"github.com/standardbeagle/fff/internal/gitstatus"
)

// FileItem is one file tracked by the index. RelativePath/RelativePathLower
// and FileName/FileNameLower are precomputed at scan time so the picker
// scorer and constraint engine never allocate per-query.
type FileItem struct {
	Path              string
	relativePath      string
	relativePathLower string
	fileName          string
	fileNameLower     string
	Size              int64
	Modified          int64

	GitStatusBits gitstatus.Status
	GitTracked    bool
	IsBinary      bool
}

// NewFileItem builds a FileItem, precomputing its lowercase path/name.
func NewFileItem(absPath, relPath string, size, modified int64) *FileItem {
	fi := &FileItem{
		Path:         absPath,
		relativePath: relPath,
		Size:         size,
		Modified:     modified,
	}
	fi.fileName = baseName(relPath)
	fi.relativePathLower = toLower(relPath)
	fi.fileNameLower = toLower(fi.fileName)
	return fi
}

// RelativePath implements constraints.Item.
func (f *FileItem) RelativePath() string { return f.relativePath }

// FileName implements constraints.Item.
func (f *FileItem) FileName() string { return f.fileName }

// RelativePathLower implements constraints.Item.
func (f *FileItem) RelativePathLower() string { return f.relativePathLower }

// FileNameLower is the lowercase file name, used by the picker's filename
// fuzzy-match pass.
func (f *FileItem) FileNameLower() string { return f.fileNameLower }

// GitStatus implements constraints.Item.
func (f *FileItem) GitStatus() (gitstatus.Status, bool) { return f.GitStatusBits, f.GitTracked }

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func toLower(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
