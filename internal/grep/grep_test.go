package grep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/fff/internal/fileindex"
	"github.com/standardbeagle/fff/internal/gitstatus"
	"github.com/standardbeagle/fff/internal/queryparser"
)

func writeFile(t *testing.T, dir, rel, content string) *fileindex.FileItem {
	t.Helper()
	abs := filepath.Join(dir, rel)
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return fileindex.NewFileItem(abs, rel, int64(len(content)), 1000)
}

func parse(raw string) queryparser.Result {
	return queryparser.Parse(raw, queryparser.Grep)
}

func defaultOpts(mode Mode) Options {
	return Options{
		MaxFileSize:       1 << 20,
		MaxMatchesPerFile: 100,
		SmartCase:         true,
		PageLimit:         50,
		Mode:              mode,
	}
}

func TestSearch_PlainTextFindsLineAndColumn(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "main.go", "package main\n\nfunc helloWorld() {}\n")

	res := Search([]*fileindex.FileItem{f}, Context{Parsed: parse("helloWorld")}, defaultOpts(PlainText))

	if res.TotalMatchCount != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", res.TotalMatchCount, res.Matches)
	}
	m := res.Matches[0]
	if m.LineNumber != 3 {
		t.Fatalf("expected line 3, got %d", m.LineNumber)
	}
	if m.Col != 5 {
		t.Fatalf("expected col 5, got %d", m.Col)
	}
}

func TestSearch_PlainTextSmartCase(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", "var Foo int\nvar foo int\n")

	lower := Search([]*fileindex.FileItem{f}, Context{Parsed: parse("foo")}, defaultOpts(PlainText))
	if lower.TotalMatchCount != 2 {
		t.Fatalf("expected case-insensitive match on both lines, got %d", lower.TotalMatchCount)
	}

	upper := Search([]*fileindex.FileItem{f}, Context{Parsed: parse("Foo")}, defaultOpts(PlainText))
	if upper.TotalMatchCount != 1 {
		t.Fatalf("expected smart-case exact match on one line, got %d", upper.TotalMatchCount)
	}
}

func TestSearch_RegexMode(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", "fn1()\nfn22()\nbar()\n")

	res := Search([]*fileindex.FileItem{f}, Context{Parsed: parse(`fn\d+`)}, defaultOpts(Regex))
	if res.TotalMatchCount != 2 {
		t.Fatalf("expected 2 regex matches, got %d", res.TotalMatchCount)
	}
	if res.RegexFallbackError != "" {
		t.Fatalf("expected no fallback, got %q", res.RegexFallbackError)
	}
}

func TestSearch_RegexFallsBackOnInvalidPattern(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", "has (unbalanced in it\n")

	res := Search([]*fileindex.FileItem{f}, Context{Parsed: parse(`(unbalanced`)}, defaultOpts(Regex))
	if res.RegexFallbackError == "" {
		t.Fatal("expected a regex compile error to be recorded")
	}
	if res.TotalMatchCount != 1 {
		t.Fatalf("expected the literal fallback to still find the line, got %d", res.TotalMatchCount)
	}
}

func TestSearch_FuzzyFindsLooseSubsequence(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", "struct SortedArrayMap {}\nunrelated line entirely\n")

	res := Search([]*fileindex.FileItem{f}, Context{Parsed: parse("SortedMap")}, defaultOpts(Fuzzy))
	if res.TotalMatchCount != 1 {
		t.Fatalf("expected 1 fuzzy match, got %d: %+v", res.TotalMatchCount, res.Matches)
	}
	if res.Matches[0].FuzzyScore == nil {
		t.Fatal("expected a fuzzy score to be set")
	}
}

func TestSearch_FuzzyRejectsScatteredGarbage(t *testing.T) {
	dir := t.TempDir()
	f := writeFile(t, dir, "a.go", "struct SourcingProjectMetadataParts {}\n")

	res := Search([]*fileindex.FileItem{f}, Context{Parsed: parse("struct SortedMap")}, defaultOpts(Fuzzy))
	if res.TotalMatchCount != 0 {
		t.Fatalf("expected scattered match to be rejected, got %d", res.TotalMatchCount)
	}
}

func TestSearch_EmptyQueryReturnsWelcomeState(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, dir, "clean.go", "clean\n")
	modified := writeFile(t, dir, "dirty.go", "dirty\n")
	modified.GitStatusBits = gitstatus.WTModified
	modified.GitTracked = true

	res := Search([]*fileindex.FileItem{clean, modified}, Context{Parsed: parse("")}, defaultOpts(PlainText))
	if len(res.Files) != 1 || res.Files[0].RelativePath() != "dirty.go" {
		t.Fatalf("expected only the modified file in the welcome state, got %+v", res.Files)
	}
	if res.Matches[0].LineNumber != 0 {
		t.Fatalf("expected the sentinel line_number=0, got %d", res.Matches[0].LineNumber)
	}
}

func TestSearch_FileOffsetPagination(t *testing.T) {
	dir := t.TempDir()
	var files []*fileindex.FileItem
	for i := 0; i < 3; i++ {
		files = append(files, writeFile(t, dir, filepathName(i), "needle here\n"))
	}

	opts := defaultOpts(PlainText)
	opts.PageLimit = 1
	first := Search(files, Context{Parsed: parse("needle")}, opts)
	if first.NextFileOffset == 0 {
		t.Fatal("expected more files to page through")
	}

	opts.FileOffset = first.NextFileOffset
	second := Search(files, Context{Parsed: parse("needle")}, opts)
	if len(second.Files) == 0 {
		t.Fatal("expected the second page to still find a file")
	}
}

func filepathName(i int) string {
	names := []string{"a.go", "b.go", "c.go"}
	return names[i]
}
