package grep

import "bytes"

// lineScanner is a zero-allocation line iterator over file bytes, adapted
// from the teacher's internal/core/line_scanner.go down to the surface grep
// needs: 1-based line numbers and byte offsets for GrepMatch, with CRLF
// stripped from each line.
type lineScanner struct {
	data    []byte
	start   int
	end     int
	pos     int
	lineNum int
	done    bool
}

func newLineScanner(data []byte) *lineScanner {
	return &lineScanner{data: data}
}

func (ls *lineScanner) Scan() bool {
	if ls.done {
		return false
	}
	if ls.pos >= len(ls.data) {
		ls.done = true
		return false
	}

	ls.start = ls.pos
	ls.lineNum++

	idx := bytes.IndexByte(ls.data[ls.pos:], '\n')
	if idx < 0 {
		ls.end = len(ls.data)
		ls.pos = len(ls.data)
	} else {
		ls.end = ls.pos + idx
		ls.pos = ls.pos + idx + 1
	}

	if ls.end > ls.start && ls.data[ls.end-1] == '\r' {
		ls.end--
	}
	return true
}

func (ls *lineScanner) Bytes() []byte { return ls.data[ls.start:ls.end] }
func (ls *lineScanner) LineNumber() int { return ls.lineNum }
func (ls *lineScanner) Offset() int     { return ls.start }
