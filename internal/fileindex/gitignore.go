package fileindex

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Matcher parses .gitignore-style files and answers whether a given
// relative path should be excluded from the index. Generalized from the
// teacher's internal/config/gitignore.go parser: same pattern-type
// classification and fast-path matching, stripped of the LCI-specific
// exclusion-pattern export.
type Matcher struct {
	patterns []pattern

	regexCache sync.Map
}

type patternType int

const (
	patternExact patternType = iota
	patternPrefix
	patternSuffix
	patternComplex
	patternWildcard
)

type pattern struct {
	raw       string
	negate    bool
	directory bool
	absolute  bool

	kind     patternType
	prefix   string
	suffix   string
	compiled *regexp.Regexp
}

// NewMatcher returns an empty Matcher with no patterns loaded.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// LoadFile reads one ignore file (.gitignore, .fffignore, ...) at path and
// appends its patterns. A missing file is not an error.
func (m *Matcher) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.AddPattern(line)
	}
	return scanner.Err()
}

// AddPattern parses and appends a single pattern line.
func (m *Matcher) AddPattern(line string) {
	p := pattern{}

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.absolute = true
		line = line[1:]
	}
	p.raw = line
	p.kind, p.prefix, p.suffix, p.compiled = m.analyze(line)

	m.patterns = append(m.patterns, p)
}

func (m *Matcher) analyze(pat string) (patternType, string, string, *regexp.Regexp) {
	if !strings.ContainsAny(pat, "*?[") {
		return patternExact, pat, pat, nil
	}

	if strings.Contains(pat, "*") && !strings.ContainsAny(pat, "?[") {
		if strings.HasPrefix(pat, "*") && !strings.Contains(pat[1:], "*") {
			return patternSuffix, "", pat[1:], nil
		}
		if strings.HasSuffix(pat, "*") && !strings.Contains(pat[:len(pat)-1], "*") {
			return patternPrefix, pat[:len(pat)-1], "", nil
		}
	}

	regexPat := globToRegex(pat)
	if cached, ok := m.regexCache.Load(regexPat); ok {
		return patternComplex, "", "", cached.(*regexp.Regexp)
	}
	compiled, err := regexp.Compile(regexPat)
	if err != nil {
		return patternWildcard, "", "", nil
	}
	m.regexCache.Store(regexPat, compiled)
	return patternComplex, "", "", compiled
}

func globToRegex(pat string) string {
	regex := regexp.QuoteMeta(pat)
	regex = strings.ReplaceAll(regex, `\*`, `.*`)
	regex = strings.ReplaceAll(regex, `\?`, `.`)
	regex = strings.ReplaceAll(regex, `\[`, `[`)
	regex = strings.ReplaceAll(regex, `\]`, `]`)
	return "^" + regex + "$"
}

// ShouldIgnore reports whether relPath (forward-slash separated, relative
// to the scan root) should be excluded, applying patterns in file order so
// later negations can re-include an earlier match.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	ignored := false
	for _, p := range m.patterns {
		if matchesPattern(p, relPath, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

func matchesPattern(p pattern, path string, isDir bool) bool {
	if p.directory {
		if isDir {
			return matchDirectory(p, path)
		}
		return matchInsideDirectory(p, path)
	}

	if p.absolute {
		return fastMatch(p, path)
	}

	if fastMatch(p, path) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if fastMatch(p, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func fastMatch(p pattern, path string) bool {
	switch p.kind {
	case patternExact:
		return p.raw == path
	case patternPrefix:
		return strings.HasPrefix(path, p.prefix)
	case patternSuffix:
		return strings.HasSuffix(path, p.suffix)
	case patternComplex:
		return p.compiled.MatchString(path)
	case patternWildcard:
		matched, _ := filepath.Match(p.raw, path)
		return matched
	default:
		return p.raw == path
	}
}

func matchDirectory(p pattern, path string) bool {
	if fastMatch(p, path) {
		return true
	}
	if strings.HasSuffix(p.raw, "/**") {
		base := strings.TrimSuffix(p.raw, "/**")
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return false
}

func matchInsideDirectory(p pattern, path string) bool {
	if strings.HasPrefix(path, p.raw+"/") {
		return true
	}
	return fastMatch(p, path)
}
