package fileindex

import "testing"

func TestMatcher_ExactAndWildcard(t *testing.T) {
	m := NewMatcher()
	m.AddPattern("*.log")
	m.AddPattern("build/")

	if !m.ShouldIgnore("debug.log", false) {
		t.Error("expected *.log to ignore debug.log")
	}
	if m.ShouldIgnore("debug.txt", false) {
		t.Error("did not expect debug.txt to be ignored")
	}
	if !m.ShouldIgnore("build", true) {
		t.Error("expected build/ to ignore the build directory itself")
	}
	if !m.ShouldIgnore("build/output.o", false) {
		t.Error("expected build/ to ignore files inside build/")
	}
}

func TestMatcher_Negation(t *testing.T) {
	m := NewMatcher()
	m.AddPattern("*.log")
	m.AddPattern("!important.log")

	if m.ShouldIgnore("important.log", false) {
		t.Error("expected negation to re-include important.log")
	}
	if !m.ShouldIgnore("other.log", false) {
		t.Error("expected other.log to stay ignored")
	}
}

func TestMatcher_AbsoluteVsRelative(t *testing.T) {
	m := NewMatcher()
	m.AddPattern("/root_only.txt")

	if !m.ShouldIgnore("root_only.txt", false) {
		t.Error("expected absolute pattern to match at root")
	}
	if m.ShouldIgnore("nested/root_only.txt", false) {
		t.Error("absolute pattern should not match nested paths")
	}
}

func TestMatcher_NoPatternsNeverIgnores(t *testing.T) {
	m := NewMatcher()
	if m.ShouldIgnore("anything.go", false) {
		t.Error("expected no patterns to never ignore")
	}
}
