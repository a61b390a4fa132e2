package grep

import (
	"regexp"
	"unicode"

	"github.com/standardbeagle/fff/internal/fileindex"
)

// literalOrRegexSearch builds a compiled matcher for PlainText/Regex mode and
// runs it line-by-line over every file via runFileSearch. A Regex pattern
// that fails to compile falls back to literal (escaped) matching, with the
// compile error surfaced on Result.RegexFallbackError — mirrors grep.rs's
// build_regex/regex_fallback_error contract, using stdlib regexp in place of
// the SIMD regex/memchr engine the original relies on.
func literalOrRegexSearch(grepText string, files []*fileindex.FileItem, ctx Context, opts Options, totalFiles, filteredCount int) Result {
	caseInsensitive := opts.SmartCase && !hasUpper(grepText)

	pattern := grepText
	if opts.Mode == PlainText {
		pattern = regexp.QuoteMeta(pattern)
	}

	re, err := compileRegex(pattern, caseInsensitive)
	var fallbackErr string
	if err != nil {
		if opts.Mode == PlainText {
			return Result{TotalFiles: totalFiles}
		}
		fallbackErr = err.Error()
		re, err = compileRegex(regexp.QuoteMeta(grepText), caseInsensitive)
		if err != nil {
			return Result{TotalFiles: totalFiles}
		}
	}

	return runFileSearch(files, ctx, opts, totalFiles, filteredCount, fallbackErr, false,
		func(data []byte, maxMatches int) []Match {
			return searchWithRegex(re, data, maxMatches)
		})
}

func compileRegex(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errEmptyPattern
	}
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

var errEmptyPattern = &patternError{"empty pattern"}

type patternError struct{ msg string }

func (e *patternError) Error() string { return e.msg }

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// searchWithRegex scans data line by line, collecting up to maxMatches
// GrepMatch entries for lines the regex matches at least once.
func searchWithRegex(re *regexp.Regexp, data []byte, maxMatches int) []Match {
	var out []Match
	ls := newLineScanner(data)
	for ls.Scan() {
		line := ls.Bytes()
		locs := re.FindAllIndex(line, -1)
		if locs == nil {
			continue
		}

		offsets := make([][2]uint32, len(locs))
		for i, loc := range locs {
			offsets[i] = [2]uint32{uint32(loc[0]), uint32(loc[1])}
		}

		out = append(out, Match{
			LineNumber:       uint64(ls.LineNumber()),
			Col:              locs[0][0],
			ByteOffset:       uint64(ls.Offset()),
			LineContent:      truncateLine(line),
			MatchByteOffsets: offsets,
		})
		if len(out) >= maxMatches {
			break
		}
	}
	return out
}

const maxLineDisplayLen = 512

func truncateLine(line []byte) string {
	if len(line) <= maxLineDisplayLen {
		return string(line)
	}
	end := maxLineDisplayLen
	for end > 0 && !utf8StartByte(line[end]) {
		end--
	}
	return string(line[:end])
}

func utf8StartByte(b byte) bool {
	return b&0xC0 != 0x80
}
