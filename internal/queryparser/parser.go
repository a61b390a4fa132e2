package queryparser

import "strings"

// Result is the outcome of parsing one query string.
type Result struct {
	// Constraints is the list of structured constraints extracted from the
	// query. Empty when the query carries no constraint tokens.
	Constraints []Constraint
	// FuzzyQuery is the residual free text: the joined non-constraint tokens
	// for a structured (Parsed) result, or the raw single token when the
	// query was left unparsed.
	FuzzyQuery string
	// Location is the trailing cursor position stripped from the query, if
	// any (":line", ":line:col", or ":l1:c1-l2:c2").
	Location *Location
	// Parsed is true when the query was multi-token (or a single token that
	// was itself a recognized constraint). False means the caller should
	// treat FuzzyQuery as plain fuzzy text with no constraint structure.
	Parsed bool
}

// Parse splits raw on whitespace and classifies each token per dialect's
// rules, after stripping a trailing location suffix. A single token that
// isn't itself a recognized constraint is returned unparsed so callers can
// use the raw text directly as a fuzzy query.
func Parse(raw string, dialect Dialect) Result {
	stripped, loc := stripLocation(raw)
	trimmed := strings.TrimSpace(stripped)

	if trimmed == "" {
		return Result{Location: loc}
	}

	tokens := strings.Fields(trimmed)

	if len(tokens) == 1 {
		tok := tokens[0]
		if lit, ok := literalOverride(tok, dialect); ok {
			return Result{FuzzyQuery: lit, Location: loc}
		}
		if c, ok := classifyToken(tok, dialect, true); ok {
			return Result{Constraints: []Constraint{c}, Location: loc, Parsed: true}
		}
		return Result{FuzzyQuery: tok, Location: loc}
	}

	var constraints []Constraint
	var textParts []string
	for _, tok := range tokens {
		if lit, ok := literalOverride(tok, dialect); ok {
			textParts = append(textParts, lit)
			continue
		}
		if c, ok := classifyToken(tok, dialect, true); ok {
			constraints = append(constraints, c)
			continue
		}
		textParts = append(textParts, tok)
	}

	return Result{
		Constraints: constraints,
		FuzzyQuery:  strings.Join(textParts, " "),
		Location:    loc,
		Parsed:      true,
	}
}

// literalOverride recognizes a backslash-escaped *constraint* token ("\
// prefix forces literal interpretation of the following token", spec.md
// §4.1) and returns its unescaped text. The strip only fires when the
// remainder would otherwise classify as a constraint: an escape in front
// of ordinary text, like the regex `\bfoo\b` or the literal `\$100`, must
// reach the fuzzy/grep text with its backslash intact, matching the
// original's strip_backslash_escapes (grep.rs), which escapes only
// would-be constraints like `\*.rs` and leaves regex syntax untouched.
func literalOverride(token string, dialect Dialect) (string, bool) {
	if !strings.HasPrefix(token, "\\") {
		return "", false
	}
	rest := token[1:]
	if rest == "" {
		return "", false
	}
	if _, ok := classifyToken(rest, dialect, true); !ok {
		return "", false
	}
	return rest, true
}

// classifyToken runs the shared priority ladder from the query grammar. The
// allowNot flag is false when called for the inner token of a `!` negation,
// so a doubled `!!x` does not recurse into another negation.
func classifyToken(token string, dialect Dialect, allowNot bool) (Constraint, bool) {
	if strings.HasPrefix(token, "*") {
		rest := token[1:]
		if ext, ok := extensionPattern(rest); ok {
			return NewExtension(ext), true
		}
		if containsWildcard(token) {
			return NewGlob(token), true
		}
	}

	if allowNot && strings.HasPrefix(token, "!") {
		inner := token[1:]
		if inner != "" {
			if c, ok := classifyToken(inner, dialect, false); ok {
				return NewNot(c), true
			}
			return NewNot(NewText(inner)), true
		}
	}

	if seg, ok := pathSegment(token); ok {
		return NewPathSegment(seg), true
	}

	if dialect.IsGlob(token) {
		return NewGlob(token), true
	}

	if key, value, ok := splitKeyValue(token); ok {
		switch strings.ToLower(key) {
		case "type":
			return NewExtension(value), true
		case "status":
			if dialect.AllowGitStatus() {
				if st, ok := matchStatusPrefix(value); ok {
					return NewGitStatus(st), true
				}
			}
		}
	}

	return Constraint{}, false
}

// extensionPattern recognizes rest (a token with its leading '*' already
// stripped) as ".<ext>" with no further wildcard characters.
func extensionPattern(rest string) (string, bool) {
	if !strings.HasPrefix(rest, ".") {
		return "", false
	}
	ext := rest[1:]
	if ext == "" || containsWildcard(ext) {
		return "", false
	}
	return ext, true
}

func containsWildcard(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// pathSegment recognizes a leading "/seg", trailing "seg/", or "/seg/" token
// naming a single path component with no further slashes.
func pathSegment(token string) (string, bool) {
	hasLeading := strings.HasPrefix(token, "/")
	hasTrailing := strings.HasSuffix(token, "/")
	if !hasLeading && !hasTrailing {
		return "", false
	}

	inner := token
	if hasLeading {
		inner = inner[1:]
	}
	if hasTrailing && len(inner) > 0 {
		inner = inner[:len(inner)-1]
	}
	if inner == "" || strings.Contains(inner, "/") {
		return "", false
	}
	return inner, true
}

// splitKeyValue splits a "key:value" token on its first colon, rejecting
// tokens where either side is empty.
func splitKeyValue(token string) (key, value string, ok bool) {
	idx := strings.IndexByte(token, ':')
	if idx <= 0 || idx == len(token)-1 {
		return "", "", false
	}
	return token[:idx], token[idx+1:], true
}

var statusNames = []struct {
	name   string
	status GitStatus
}{
	{"modified", GitStatusModified},
	{"untracked", GitStatusUntracked},
	{"staged", GitStatusStaged},
	{"clean", GitStatusClean},
}

// matchStatusPrefix resolves a status: value against the known status names
// by prefix, so "m", "mod", and "modified" all resolve to GitStatusModified.
func matchStatusPrefix(value string) (GitStatus, bool) {
	v := strings.ToLower(value)
	if v == "" {
		return 0, false
	}
	for _, s := range statusNames {
		if strings.HasPrefix(s.name, v) {
			return s.status, true
		}
	}
	return 0, false
}
