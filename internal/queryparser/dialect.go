package queryparser

import "strings"

// Dialect controls the two points where picker and grep queries diverge:
// whether status: constraints are recognized, and which characters trigger
// glob detection for tokens that aren't otherwise classified.
type Dialect interface {
	Name() string
	AllowGitStatus() bool
	IsGlob(token string) bool
}

type pickerDialect struct{}

func (pickerDialect) Name() string          { return "picker" }
func (pickerDialect) AllowGitStatus() bool  { return true }
func (pickerDialect) IsGlob(token string) bool {
	return strings.ContainsAny(token, "*?[{")
}

// Picker is the dialect used by fuzzy_search_files: all constraint kinds
// enabled, any of *?[{ triggers glob detection.
var Picker Dialect = pickerDialect{}

type grepDialect struct{}

func (grepDialect) Name() string         { return "grep" }
func (grepDialect) AllowGitStatus() bool { return false }
func (grepDialect) IsGlob(token string) bool {
	if strings.Contains(token, "/") {
		return true
	}
	return hasBraceExpr(token)
}

// Grep is the dialect used by live_grep: git-status constraints disabled
// (source files contain status: as literal text), and ? / bare [ / bare *
// treated as literal since source code contains them pervasively. Only a
// token with a path separator or a brace-expansion group is a glob.
var Grep Dialect = grepDialect{}

func hasBraceExpr(s string) bool {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		return false
	}
	end := strings.IndexByte(s[open+1:], '}')
	return end >= 0
}
