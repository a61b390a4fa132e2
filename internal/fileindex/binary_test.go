package fileindex

import "testing"

func TestIsBinary_ByExtension(t *testing.T) {
	if !IsBinary("logo.png", nil) {
		t.Error("expected .png to be binary by extension")
	}
	if IsBinary("bundle.min.js", nil) {
		t.Error("expected .min.js to be treated as text")
	}
}

func TestIsBinary_ByContent(t *testing.T) {
	text := []byte("package main\n\nfunc main() {}\n")
	if IsBinary("main.go", text) {
		t.Error("plain Go source should not be flagged binary")
	}

	withNul := append([]byte("abc"), 0, 0, 0, 0)
	if !IsBinary("data.unknown", bytesRepeat(withNul, 50)) {
		t.Error("expected a NUL-heavy sample to be flagged binary")
	}
}

func bytesRepeat(b []byte, n int) []byte {
	out := make([]byte, 0, len(b)*n)
	for i := 0; i < n; i++ {
		out = append(out, b...)
	}
	return out
}
