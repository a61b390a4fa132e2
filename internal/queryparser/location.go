package queryparser

import (
	"regexp"
	"strconv"
)

// Location is a cursor position parsed from a trailing :<line>[:<col>][-<l>:<c>]
// suffix on the whole query string.
type Location struct {
	Line    int
	Col     int
	HasCol  bool
	EndLine int
	EndCol  int
	HasEnd  bool
}

var locationSuffixRe = regexp.MustCompile(`:(\d+)(?::(\d+))?(?:-(\d+):(\d+))?$`)

// stripLocation removes a trailing location suffix from raw, returning the
// remaining string and the parsed Location (nil if none was present).
func stripLocation(raw string) (string, *Location) {
	m := locationSuffixRe.FindStringSubmatchIndex(raw)
	if m == nil {
		return raw, nil
	}

	loc := &Location{}
	loc.Line, _ = strconv.Atoi(raw[m[2]:m[3]])
	if m[4] >= 0 {
		loc.Col, _ = strconv.Atoi(raw[m[4]:m[5]])
		loc.HasCol = true
	}
	if m[6] >= 0 && m[8] >= 0 {
		loc.EndLine, _ = strconv.Atoi(raw[m[6]:m[7]])
		loc.EndCol, _ = strconv.Atoi(raw[m[8]:m[9]])
		loc.HasEnd = true
	}

	return raw[:m[0]], loc
}
