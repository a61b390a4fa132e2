// Package grep implements live content search over the indexed file set:
// literal and regular-expression line search via the standard library, and a
// fuzzy line-ranking mode built on internal/picker's bounded-subsequence
// matcher. Grounded on original_source/crates/fff-core/src/grep.rs's
// run_file_search/prepare_files_to_search control-flow shape and its
// fuzzy_grep_search quality filters, adapted to stdlib regexp/bytes since no
// SIMD grep engine exists in the retrieval pack. Content access goes through
// internal/mmapcache rather than re-reading the file on every keystroke.
package grep

import (
	"sort"
	"time"

	"github.com/standardbeagle/fff/internal/constraints"
	"github.com/standardbeagle/fff/internal/fileindex"
	"github.com/standardbeagle/fff/internal/gitstatus"
	"github.com/standardbeagle/fff/internal/mmapcache"
	"github.com/standardbeagle/fff/internal/queryparser"
	"github.com/standardbeagle/fff/internal/store"
)

// Mode controls how the search pattern is interpreted.
type Mode int

const (
	// PlainText treats the pattern as literal text (the default).
	PlainText Mode = iota
	// Regex treats the pattern as a regular expression. An invalid pattern
	// falls back to PlainText and the compile error is reported on Result.
	Regex
	// Fuzzy treats the pattern as a fuzzy needle ranked per-line.
	Fuzzy
)

// welcomeStateLimit caps the empty-query "recently changed" result set.
const welcomeStateLimit = 50

// Match is a single content match within one searched file.
type Match struct {
	// FileIndex indexes into Result.Files.
	FileIndex int
	// LineNumber is 1-based; 0 is the empty-query sentinel (no line context).
	LineNumber       uint64
	Col              int
	ByteOffset       uint64
	LineContent      string
	MatchByteOffsets [][2]uint32
	// FuzzyScore is set only in Fuzzy mode.
	FuzzyScore *uint16
}

// Result is the outcome of one Search call.
type Result struct {
	Matches            []Match
	Files              []*fileindex.FileItem
	TotalMatchCount    int
	TotalFilesSearched int
	TotalFiles         int
	FilteredFileCount  int
	// NextFileOffset is 0 when there are no more files to page through.
	NextFileOffset int
	// RegexFallbackError is set when Regex mode failed to compile the
	// pattern and the search fell back to literal matching.
	RegexFallbackError string
}

// Options tunes one Search call.
type Options struct {
	MaxFileSize       int64
	MaxMatchesPerFile int
	SmartCase         bool
	FileOffset        int
	PageLimit         int
	Mode              Mode
	// TimeBudget caps how long Search spends before returning partial
	// results; zero means no limit.
	TimeBudget time.Duration
}

// Context carries the side-state Search needs beyond the raw query: the
// parsed constraints/text, the content cache, and frecency for both file
// ordering and the empty-query welcome state.
type Context struct {
	Parsed   queryparser.Result
	Frecency *store.FrecencyStore
	MMap     *mmapcache.Cache
}

// Search runs a grep over files, dispatching on opts.Mode. An empty grep
// text (after constraint extraction) returns the "welcome state": recently
// modified/untracked files ranked by frecency, with a line_number=0 sentinel
// match per file, mirroring grep.rs's build_empty_query_result.
func Search(files []*fileindex.FileItem, ctx Context, opts Options) Result {
	totalFiles := len(files)
	grepText := ctx.Parsed.FuzzyQuery

	if grepText == "" {
		return buildEmptyQueryResult(files, ctx, totalFiles)
	}

	filesToSearch, filteredCount := prepareFilesToSearch(files, ctx, opts)
	if len(filesToSearch) == 0 {
		return Result{TotalFiles: totalFiles, FilteredFileCount: filteredCount}
	}

	if opts.Mode == Fuzzy {
		return fuzzyGrepSearch(grepText, filesToSearch, ctx, opts, totalFiles, filteredCount)
	}

	return literalOrRegexSearch(grepText, filesToSearch, ctx, opts, totalFiles, filteredCount)
}

// prepareFilesToSearch applies the parsed constraints, drops binary/oversize/
// empty files, sorts the remainder by total frecency (descending, ties
// broken by most-recently-modified), and slices off opts.FileOffset. Mirrors
// grep.rs's prepare_files_to_search.
func prepareFilesToSearch(files []*fileindex.FileItem, ctx Context, opts Options) ([]*fileindex.FileItem, int) {
	working, ok := constraints.Apply(files, ctx.Parsed.Constraints)
	if !ok {
		working = files
	}

	searchable := make([]*fileindex.FileItem, 0, len(working))
	for _, f := range working {
		if !f.IsBinary && f.Size > 0 && f.Size <= opts.MaxFileSize {
			searchable = append(searchable, f)
		}
	}

	sort.SliceStable(searchable, func(i, j int) bool {
		si, sj := totalFrecency(searchable[i], ctx), totalFrecency(searchable[j], ctx)
		if si != sj {
			return si > sj
		}
		return searchable[i].Modified > searchable[j].Modified
	})

	filteredCount := len(searchable)
	if opts.FileOffset >= len(searchable) {
		return nil, filteredCount
	}
	return searchable[opts.FileOffset:], filteredCount
}

func totalFrecency(f *fileindex.FileItem, ctx Context) int32 {
	if ctx.Frecency == nil {
		return 0
	}
	return ctx.Frecency.AccessScore(f.RelativePath()) + ctx.Frecency.ModificationScore(f.RelativePath())*4
}

// searchFileFunc scores/matches one file's already-resident bytes, filling
// in the Match.LineNumber/Col/etc. fields but leaving FileIndex for
// runFileSearch to assign once the file is known to have produced a hit.
type searchFileFunc func(data []byte, maxMatches int) []Match

// runFileSearch is the shared control loop: walk filesToSearch in order,
// reading each through the mmap cache, stopping at the time budget or once
// page_limit matches have accumulated. Mirrors grep.rs's run_file_search,
// including its "keep going past the time budget until half a page is full"
// exception for fuzzy mode (requirePartialFill).
func runFileSearch(filesToSearch []*fileindex.FileItem, ctx Context, opts Options, totalFiles, filteredCount int, regexFallbackErr string, requirePartialFill bool, search searchFileFunc) Result {
	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = time.Now().Add(opts.TimeBudget)
	}

	var resultFiles []*fileindex.FileItem
	var allMatches []Match
	filesSearched := 0

	for i, f := range filesToSearch {
		if !deadline.IsZero() && time.Now().After(deadline) {
			if !requirePartialFill || len(allMatches) >= opts.PageLimit/2 {
				break
			}
		}

		data, ok := readFile(ctx.MMap, f)
		filesSearched = i + 1
		if !ok {
			continue
		}

		fileMatches := search(data, opts.MaxMatchesPerFile)
		if len(fileMatches) == 0 {
			continue
		}

		fileIdx := len(resultFiles)
		resultFiles = append(resultFiles, f)
		for _, m := range fileMatches {
			m.FileIndex = fileIdx
			allMatches = append(allMatches, m)
		}

		if len(allMatches) >= opts.PageLimit {
			allMatches = allMatches[:opts.PageLimit]
			break
		}
	}

	nextOffset := 0
	if filesSearched < len(filesToSearch) {
		nextOffset = opts.FileOffset + filesSearched
	}

	return Result{
		Matches:            allMatches,
		Files:              resultFiles,
		TotalMatchCount:    len(allMatches),
		TotalFilesSearched: filesSearched,
		TotalFiles:         totalFiles,
		FilteredFileCount:  filteredCount,
		NextFileOffset:     nextOffset,
		RegexFallbackError: regexFallbackErr,
	}
}

func readFile(cache *mmapcache.Cache, f *fileindex.FileItem) ([]byte, bool) {
	if cache != nil {
		if data, ok := cache.Get(f.Path, f.Size); ok {
			return data, true
		}
	}
	return readFileDirect(f.Path)
}

// buildEmptyQueryResult returns git-modified/untracked files ranked by
// frecency as a "welcome state", one sentinel (line_number=0) match per
// file, mirroring grep.rs's build_empty_query_result.
func buildEmptyQueryResult(files []*fileindex.FileItem, ctx Context, totalFiles int) Result {
	working, ok := constraints.Apply(files, ctx.Parsed.Constraints)
	if !ok {
		working = files
	}

	changed := make([]*fileindex.FileItem, 0, len(working))
	for _, f := range working {
		status, tracked := f.GitStatus()
		if tracked && (gitstatus.IsModified(status) || gitstatus.IsUntracked(status)) {
			changed = append(changed, f)
		}
	}

	sort.SliceStable(changed, func(i, j int) bool {
		si, sj := totalFrecency(changed[i], ctx), totalFrecency(changed[j], ctx)
		if si != sj {
			return si > sj
		}
		return changed[i].Modified > changed[j].Modified
	})
	if len(changed) > welcomeStateLimit {
		changed = changed[:welcomeStateLimit]
	}

	matches := make([]Match, len(changed))
	for i := range changed {
		matches[i] = Match{FileIndex: i}
	}

	return Result{
		Matches:           matches,
		Files:             changed,
		TotalMatchCount:   len(changed),
		TotalFiles:        totalFiles,
		FilteredFileCount: 0,
	}
}
