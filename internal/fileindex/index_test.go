package fileindex

import "testing"

func TestIndex_UpsertKeepsSortOrder(t *testing.T) {
	idx := NewIndex()
	idx.Upsert(NewFileItem("/r/c.go", "c.go", 1, 1))
	idx.Upsert(NewFileItem("/r/a.go", "a.go", 1, 1))
	idx.Upsert(NewFileItem("/r/b.go", "b.go", 1, 1))

	snap := idx.Snapshot()
	want := []string{"a.go", "b.go", "c.go"}
	for i, w := range want {
		if snap[i].RelativePath() != w {
			t.Fatalf("index[%d] = %s, want %s", i, snap[i].RelativePath(), w)
		}
	}
}

func TestIndex_UpsertReplacesExisting(t *testing.T) {
	idx := NewIndex()
	idx.Upsert(NewFileItem("/r/a.go", "a.go", 1, 1))
	idx.Upsert(NewFileItem("/r/a.go", "a.go", 42, 2))

	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after replace, got %d", idx.Len())
	}
	item, ok := idx.Lookup("a.go")
	if !ok || item.Size != 42 {
		t.Fatalf("expected replaced item with size 42, got %+v (ok=%v)", item, ok)
	}
}

func TestIndex_Remove(t *testing.T) {
	idx := NewIndex()
	idx.Upsert(NewFileItem("/r/a.go", "a.go", 1, 1))
	idx.Upsert(NewFileItem("/r/b.go", "b.go", 1, 1))
	idx.Remove("a.go")

	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after remove, got %d", idx.Len())
	}
	if _, ok := idx.Lookup("a.go"); ok {
		t.Fatal("expected a.go to be gone")
	}
	if _, ok := idx.Lookup("b.go"); !ok {
		t.Fatal("expected b.go to remain")
	}
}

func TestIndex_Reset(t *testing.T) {
	idx := NewIndex()
	idx.Upsert(NewFileItem("/r/a.go", "a.go", 1, 1))
	idx.Reset([]*FileItem{NewFileItem("/r/z.go", "z.go", 1, 1)})

	if idx.Len() != 1 {
		t.Fatalf("expected 1 entry after reset, got %d", idx.Len())
	}
	if _, ok := idx.Lookup("a.go"); ok {
		t.Fatal("expected a.go to be gone after reset")
	}
	if _, ok := idx.Lookup("z.go"); !ok {
		t.Fatal("expected z.go to be present after reset")
	}
}
