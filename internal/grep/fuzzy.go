package grep

import (
	"strings"

	"github.com/standardbeagle/fff/internal/fileindex"
	"github.com/standardbeagle/fff/internal/picker"
)

// fuzzyGrepSearch ranks every line of every candidate file against grepText
// using internal/picker's bounded-subsequence matcher, then applies the same
// quality gates grep.rs's fuzzy_grep_search layers on top of the raw
// match: a minimum score (50% of a perfect contiguous match), a maximum
// match span, a minimum character density, and a maximum gap count — all
// scaled by needle length exactly as the original computes them, so a scan
// like "SortedMap" still finds "struct SortedArrayMap"-style loose hits while
// rejecting scattered noise. Runs with requirePartialFill=true since fuzzy
// mode collects candidates from many files before a time-budget cutoff is
// meaningful.
func fuzzyGrepSearch(grepText string, files []*fileindex.FileItem, ctx Context, opts Options, totalFiles, filteredCount int) Result {
	needle := strings.ToLower(grepText)
	needleLen := len(needle)

	perfectScore := int32(needleLen) * 16
	minScore := perfectScore * 50 / 100
	maxMatchSpan := needleLen * 2
	minMatched := needleLen - 1
	if minMatched < 1 {
		minMatched = 1
	}
	maxGaps := needleLen / 4
	if maxGaps < 1 {
		maxGaps = 1
	}

	return runFileSearch(files, ctx, opts, totalFiles, filteredCount, "", true,
		func(data []byte, maxMatches int) []Match {
			return fuzzyLinesMatching(needle, needleLen, minScore, maxMatchSpan, minMatched, maxGaps, data, maxMatches)
		})
}

func fuzzyLinesMatching(needle string, needleLen int, minScore int32, maxMatchSpan, minMatched, maxGaps int, data []byte, maxMatches int) []Match {
	var out []Match
	ls := newLineScanner(data)
	for ls.Scan() {
		line := ls.Bytes()
		if len(line) == 0 {
			continue
		}
		lineStr := string(line)
		lower := strings.ToLower(lineStr)

		positions, score, ok := picker.MatchPositions(needle, lower)
		if !ok || score < minScore || len(positions) < minMatched {
			continue
		}

		first, last := positions[0], positions[len(positions)-1]
		span := last - first + 1
		if span > maxMatchSpan {
			continue
		}

		density := len(positions) * 100 / span
		minDensity := 70
		if len(positions) >= needleLen {
			minDensity = 50
		}
		if density < minDensity {
			continue
		}

		gapCount := 0
		for i := 1; i < len(positions); i++ {
			if positions[i] != positions[i-1]+1 {
				gapCount++
			}
		}
		if gapCount > maxGaps {
			continue
		}

		display := truncateLine(line)
		offsets := mergeAdjacentPositions(positions, len(display))
		col := 0
		if len(offsets) > 0 {
			col = int(offsets[0][0])
		}
		fuzzyScore := uint16FromScore(score)

		out = append(out, Match{
			LineNumber:       uint64(ls.LineNumber()),
			Col:              col,
			ByteOffset:       uint64(ls.Offset()),
			LineContent:      display,
			MatchByteOffsets: offsets,
			FuzzyScore:       &fuzzyScore,
		})
		if len(out) >= maxMatches {
			break
		}
	}
	return out
}

// mergeAdjacentPositions turns matched byte positions (bounded to the
// display line, since highlighting only needs to cover what is shown) into
// merged (start,end) ranges, matching grep.rs's char_indices_to_byte_offsets
// merge behavior for consecutive characters.
func mergeAdjacentPositions(positions []int, displayLen int) [][2]uint32 {
	var out [][2]uint32
	for _, p := range positions {
		if p >= displayLen {
			continue
		}
		start, end := uint32(p), uint32(p+1)
		if n := len(out); n > 0 && out[n-1][1] == start {
			out[n-1][1] = end
			continue
		}
		out = append(out, [2]uint32{start, end})
	}
	return out
}

func uint16FromScore(score int32) uint16 {
	if score < 0 {
		return 0
	}
	if score > 65535 {
		return 65535
	}
	return uint16(score)
}
