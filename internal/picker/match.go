// Package picker implements the fuzzy matching and scoring pipeline: a
// constraint prefilter (internal/constraints), a bonus-weighted subsequence
// fuzzy matcher with a go-edlib edit-distance fallback for typo tolerance,
// and the same frecency/distance/filename/combo boost formula the original
// picker used. Grounded on original_source/crates/fff-core/src/score.rs's
// match_and_score_files pipeline; the subsequence scanner itself follows
// the classic fzf "v1" two-pass (forward-then-backward) bonus algorithm
// since no in-pack library exposes positional fuzzy-subsequence scoring.
package picker

import (
	"github.com/hbollon/go-edlib"
)

// Config tunes a single matchOne/MatchList call. Both needle and haystack
// entries are expected already lowercased by the caller (the scorer keeps
// a *Lower field on every FileItem for exactly this), so there is no
// case-sensitivity knob here.
type Config struct {
	// MaxTypos is the edit-distance budget used for the typo-tolerant
	// fallback when a haystack entry does not contain needle as a plain
	// subsequence.
	MaxTypos int
}

// Match is one haystack entry that matched needle.
type Match struct {
	Index int
	Score int32
	Exact bool
}

const (
	scoreMatch          int32 = 16
	scoreGapStart       int32 = -3
	scoreGapExtension   int32 = -1
	bonusBoundary       int32 = 8
	bonusConsecutive    int32 = 8
	bonusFirstCharMatch int32 = 4
)

// MatchList scores every haystack entry against needle (both expected
// lowercase already; no capitalization or case-match bonus is applied) and
// returns the matches that succeeded, in haystack order.
func MatchList(needle string, haystack []string, cfg Config) []Match {
	out := make([]Match, 0, len(haystack))
	for i, hay := range haystack {
		score, ok, exact := matchOne(needle, hay, cfg)
		if !ok {
			continue
		}
		out = append(out, Match{Index: i, Score: score, Exact: exact})
	}
	return out
}

// matchOne reports whether needle fuzzy-matches hay, and its score. It
// first tries an exact subsequence match (scored by consecutive-run and
// word-boundary bonuses); when that fails it falls back to a bounded
// edit-distance check via go-edlib so a handful of typos still matches.
func matchOne(needle, hay string, cfg Config) (int32, bool, bool) {
	if needle == "" {
		return 0, false, false
	}
	if needle == hay {
		return scoreMatch*int32(len(needle)) + bonusConsecutive*int32(len(needle)), true, true
	}

	start, end, ok := boundedRange(needle, hay)
	if ok {
		return scoreRange(needle, hay, start, end), true, false
	}

	if cfg.MaxTypos <= 0 {
		return 0, false, false
	}
	return typoFallback(needle, hay, cfg.MaxTypos)
}

// boundedRange finds the tightest [start,end) slice of hay containing
// needle as a subsequence: forward scan for the earliest end, then a
// backward scan from there for the latest possible start.
func boundedRange(needle, hay string) (int, int, bool) {
	end := -1
	ni := 0
	for hi := 0; hi < len(hay) && ni < len(needle); hi++ {
		if hay[hi] == needle[ni] {
			ni++
			if ni == len(needle) {
				end = hi + 1
			}
		}
	}
	if end == -1 {
		return 0, 0, false
	}

	start := end
	ni = len(needle) - 1
	for hi := end - 1; hi >= 0 && ni >= 0; hi-- {
		if hay[hi] == needle[ni] {
			start = hi
			ni--
		}
	}
	return start, end, true
}

// scoreRange computes a bonus-weighted score for needle matched greedily
// within hay[start:end], rewarding consecutive runs and matches that start
// at a word boundary (start of string, or after a separator).
func scoreRange(needle, hay string, start, end int) int32 {
	var total int32
	var ni int
	lastMatched := -2
	for hi := start; hi < end && ni < len(needle); hi++ {
		if hay[hi] != needle[ni] {
			continue
		}
		s := scoreMatch
		if hi == 0 || isSeparator(hay[hi-1]) {
			s += bonusBoundary
		}
		if hi == lastMatched+1 {
			s += bonusConsecutive
		}
		if ni == 0 {
			s += bonusFirstCharMatch
		}
		total += s
		lastMatched = hi
		ni++
	}

	gapLen := (end - start) - len(needle)
	if gapLen > 0 {
		total += scoreGapStart + scoreGapExtension*int32(gapLen-1)
	}
	return total
}

// MatchPositions reports the byte positions in hay matched against needle
// (both expected lowercase already) together with the same score boundedRange
// scoring would produce, for callers that need highlight ranges rather than
// just a pass/fail — internal/grep's fuzzy mode is the only caller. Returns
// ok=false on no subsequence match; unlike matchOne this never falls back to
// typo tolerance, since grep's own quality filters reject loose matches.
func MatchPositions(needle, hay string) ([]int, int32, bool) {
	if needle == "" {
		return nil, 0, false
	}
	start, end, ok := boundedRange(needle, hay)
	if !ok {
		return nil, 0, false
	}

	positions := make([]int, 0, len(needle))
	var total int32
	var ni int
	lastMatched := -2
	for hi := start; hi < end && ni < len(needle); hi++ {
		if hay[hi] != needle[ni] {
			continue
		}
		s := scoreMatch
		if hi == 0 || isSeparator(hay[hi-1]) {
			s += bonusBoundary
		}
		if hi == lastMatched+1 {
			s += bonusConsecutive
		}
		if ni == 0 {
			s += bonusFirstCharMatch
		}
		total += s
		positions = append(positions, hi)
		lastMatched = hi
		ni++
	}

	gapLen := (end - start) - len(needle)
	if gapLen > 0 {
		total += scoreGapStart + scoreGapExtension*int32(gapLen-1)
	}
	return positions, total, true
}

func isSeparator(b byte) bool {
	switch b {
	case '/', '_', '-', '.', ' ':
		return true
	default:
		return false
	}
}

// typoFallback scores needle against hay using edit distance when no exact
// subsequence match exists, accepting candidates within maxTypos edits of
// some substring of hay close in length to needle.
func typoFallback(needle, hay string, maxTypos int) (int32, bool, bool) {
	windowLen := len(needle)
	bestDist := -1
	for start := 0; start+windowLen <= len(hay)+maxTypos && start <= len(hay); start++ {
		end := start + windowLen
		if end > len(hay) {
			end = len(hay)
		}
		if end <= start {
			continue
		}
		window := hay[start:end]
		dist, err := edlib.StringsSimilarity(needle, window, edlib.Levenshtein)
		if err != nil {
			continue
		}
		d := int((1 - dist) * float32(windowLen))
		if bestDist == -1 || d < bestDist {
			bestDist = d
		}
	}

	if bestDist == -1 || bestDist > maxTypos {
		return 0, false, false
	}
	score := scoreMatch*int32(len(needle)) - int32(bestDist)*8
	if score < 0 {
		score = 0
	}
	return score, true, false
}
