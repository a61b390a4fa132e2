package mmapcache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestCache_GetMapsAndCaches(t *testing.T) {
	path := writeTemp(t, "hello mmap")
	c := New()
	defer c.Close()

	data, ok := c.Get(path, int64(len("hello mmap")))
	if !ok {
		t.Fatal("expected successful map")
	}
	if string(data) != "hello mmap" {
		t.Fatalf("got %q", data)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Len())
	}

	data2, ok := c.Get(path, int64(len("hello mmap")))
	if !ok || &data2[0] != &data[0] {
		t.Fatal("expected second Get to reuse the cached mapping")
	}
}

func TestCache_RejectsOversizedFile(t *testing.T) {
	path := writeTemp(t, "small")
	c := New()
	defer c.Close()

	if _, ok := c.Get(path, MaxMappableSize+1); ok {
		t.Fatal("expected oversized file to be rejected")
	}
}

func TestCache_InvalidateRemapsOnNextGet(t *testing.T) {
	path := writeTemp(t, "version one")
	c := New()
	defer c.Close()

	data, ok := c.Get(path, int64(len("version one")))
	if !ok || string(data) != "version one" {
		t.Fatalf("initial map failed: %q ok=%v", data, ok)
	}

	if err := os.WriteFile(path, []byte("version two!"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	c.Invalidate(path)

	data2, ok := c.Get(path, int64(len("version two!")))
	if !ok || string(data2) != "version two!" {
		t.Fatalf("expected remap to see new contents, got %q ok=%v", data2, ok)
	}
}

func TestCache_InvalidateUnknownPathIsNoop(t *testing.T) {
	c := New()
	defer c.Close()
	c.Invalidate("/does/not/exist")
}
