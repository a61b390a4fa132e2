// Package constraints evaluates a parsed constraint list against a slice of
// items with no allocation in the per-item checks (glob constraints are
// matched against every path once per call, before evaluation), switching to
// parallel evaluation above a fixed item-count threshold, per spec.md §4.4.
package constraints

import (
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/fff/internal/gitstatus"
	"github.com/standardbeagle/fff/internal/queryparser"
)

// ParallelThreshold is the item count at or above which Apply switches from
// sequential to errgroup-parallel evaluation.
const ParallelThreshold = 10_000

// Item is the minimal surface Apply needs from a candidate. fileindex.FileItem
// implements it directly.
type Item interface {
	RelativePath() string
	RelativePathLower() string
	FileName() string
	// GitStatus reports the item's git status bits and whether status
	// information is available at all (false when git wasn't consulted).
	GitStatus() (status gitstatus.Status, tracked bool)
}

// Apply partitions constraints into an OR-ed extension group and an AND-ed
// remainder, evaluates both over items, and reports ok=false when cs is
// empty (meaning "no prefilter" per spec.md's None/Some(filtered) contract).
func Apply[T Item](items []T, cs []queryparser.Constraint) (filtered []T, ok bool) {
	if len(cs) == 0 {
		return nil, false
	}

	var extensions []string
	var others []queryparser.Constraint
	for _, c := range cs {
		if c.Kind == queryparser.KindExtension {
			extensions = append(extensions, c.Value)
		} else {
			others = append(others, c)
		}
	}

	var globs []globMatch
	if needsGlobPrecompute(others) {
		paths := make([]string, len(items))
		for i, it := range items {
			paths[i] = it.RelativePath()
		}
		globs = precomputeGlobs(paths, others)
	}

	matches := func(idx int, it T) bool {
		if len(extensions) > 0 {
			anyExt := false
			for _, ext := range extensions {
				if hasExtension(it.FileName(), ext) {
					anyExt = true
					break
				}
			}
			if !anyExt {
				return false
			}
		}

		globIdx := 0
		for _, c := range others {
			if !evalConstraint(it, idx, c, globs, &globIdx, false) {
				return false
			}
		}
		return true
	}

	if len(items) >= ParallelThreshold {
		return parallelFilter(items, matches), true
	}

	out := make([]T, 0, len(items))
	for i, it := range items {
		if matches(i, it) {
			out = append(out, it)
		}
	}
	return out, true
}

func parallelFilter[T any](items []T, matches func(int, T) bool) []T {
	n := len(items)
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	mask := make([]bool, n)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				mask[i] = matches(i, items[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]T, 0, n)
	for i, keep := range mask {
		if keep {
			out = append(out, items[i])
		}
	}
	return out
}

func evalConstraint[T Item](it T, idx int, c queryparser.Constraint, globs []globMatch, globIdx *int, negate bool) bool {
	var matched bool
	switch c.Kind {
	case queryparser.KindExtension:
		matched = hasExtension(it.FileName(), c.Value)
	case queryparser.KindGlob:
		g := globs[*globIdx]
		*globIdx++
		_, matched = g.matched[idx]
	case queryparser.KindPathSegment:
		matched = pathContainsSegment(it.RelativePath(), c.Value)
	case queryparser.KindGitStatus:
		status, tracked := it.GitStatus()
		matched = matchGitStatus(status, tracked, c.GitStatus)
	case queryparser.KindText:
		matched = strings.Contains(it.RelativePathLower(), c.Value)
	case queryparser.KindNot:
		return evalConstraint(it, idx, *c.Inner, globs, globIdx, !negate)
	default:
		matched = true
	}

	if negate {
		return !matched
	}
	return matched
}

// hasExtension reports whether fileName ends with ".ext", case-insensitively
// and without allocating, per spec.md §4.4.
func hasExtension(fileName, ext string) bool {
	if len(fileName) <= len(ext)+1 {
		return false
	}
	start := len(fileName) - len(ext) - 1
	return fileName[start] == '.' && strings.EqualFold(fileName[start+1:], ext)
}

// pathContainsSegment reports whether path contains "/<seg>/" or starts with
// "<seg>/", case-insensitively and without allocating.
func pathContainsSegment(path, seg string) bool {
	for i := 0; i+len(seg) < len(path); i++ {
		if (i == 0 || path[i-1] == '/') && path[i+len(seg)] == '/' && strings.EqualFold(path[i:i+len(seg)], seg) {
			return true
		}
	}
	return false
}

func matchGitStatus(status gitstatus.Status, tracked bool, want queryparser.GitStatus) bool {
	switch want {
	case queryparser.GitStatusModified:
		return tracked && gitstatus.IsModified(status)
	case queryparser.GitStatusUntracked:
		return tracked && gitstatus.IsUntracked(status)
	case queryparser.GitStatusStaged:
		return tracked && gitstatus.IsStaged(status)
	case queryparser.GitStatusClean:
		return !tracked || status == 0
	default:
		return false
	}
}

type globMatch struct {
	matched map[int]struct{}
}

// needsGlobPrecompute reports whether others contains a Glob constraint,
// directly or as the sole level of Not-nesting the parser ever produces.
func needsGlobPrecompute(others []queryparser.Constraint) bool {
	for _, c := range others {
		if c.Kind == queryparser.KindGlob {
			return true
		}
		if c.Kind == queryparser.KindNot && c.Inner != nil && c.Inner.Kind == queryparser.KindGlob {
			return true
		}
	}
	return false
}

// precomputeGlobs walks others in the same order evalConstraint will, so the
// globIdx cursor used during evaluation lines up with this slice.
func precomputeGlobs(paths []string, others []queryparser.Constraint) []globMatch {
	var out []globMatch
	var walk func(c queryparser.Constraint)
	walk = func(c queryparser.Constraint) {
		switch c.Kind {
		case queryparser.KindGlob:
			out = append(out, globMatch{matched: matchGlob(c.Value, paths)})
		case queryparser.KindNot:
			if c.Inner != nil {
				walk(*c.Inner)
			}
		}
	}
	for _, c := range others {
		walk(c)
	}
	return out
}

// matchGlob compiles pattern once and matches it against every path,
// returning the set of matching indices. doublestar supplies *, ?, [...],
// {a,b}, and ** semantics; per spec.md §4.5 the contract is functional, not
// algorithmic, so no SIMD acceleration is attempted here.
func matchGlob(pattern string, paths []string) map[int]struct{} {
	set := make(map[int]struct{})
	for i, p := range paths {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			set[i] = struct{}{}
		}
	}
	return set
}
