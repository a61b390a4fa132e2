package picker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/standardbeagle/fff/internal/fileindex"
	"github.com/standardbeagle/fff/internal/queryparser"
	"github.com/standardbeagle/fff/internal/store"
)

func newTestStores(t *testing.T) (*store.FrecencyStore, *store.QueryTracker) {
	t.Helper()
	dir := t.TempDir()
	fs, err := store.NewFrecencyStore(filepath.Join(dir, "frecency.gob"), time.Hour)
	if err != nil {
		t.Fatalf("NewFrecencyStore: %v", err)
	}
	qt, err := store.NewQueryTracker(filepath.Join(dir, "query.gob"), time.Hour)
	if err != nil {
		t.Fatalf("NewQueryTracker: %v", err)
	}
	t.Cleanup(func() { _ = fs.Close(); _ = qt.Close() })
	return fs, qt
}

func parse(raw string) queryparser.Result {
	return queryparser.Parse(raw, queryparser.Picker)
}

func TestMatchAndScoreFiles_BasicRanking(t *testing.T) {
	fs, qt := newTestStores(t)
	files := []*fileindex.FileItem{
		fileindex.NewFileItem("/r/main.go", "main.go", 10, 1),
		fileindex.NewFileItem("/r/other.go", "other.go", 10, 1),
	}

	items, scores, total := MatchAndScoreFiles(files, Context{
		RawQuery: "main",
		Parsed:   parse("main"),
		MaxTypos: 2,
		Frecency: fs,
		Tracker:  qt,
	})

	if total != 1 {
		t.Fatalf("expected 1 matched file, got %d", total)
	}
	if len(items) != 1 || items[0].RelativePath() != "main.go" {
		t.Fatalf("expected main.go to match, got %+v", items)
	}
	if scores[0].Total <= 0 {
		t.Fatalf("expected positive score, got %+v", scores[0])
	}
}

func TestMatchAndScoreFiles_EmptyQueryUsesFrecency(t *testing.T) {
	fs, qt := newTestStores(t)
	files := []*fileindex.FileItem{
		fileindex.NewFileItem("/r/a.go", "a.go", 1, 1),
		fileindex.NewFileItem("/r/b.go", "b.go", 1, 1),
	}
	fs.TrackAccess("b.go")

	items, scores, total := MatchAndScoreFiles(files, Context{
		Parsed:   parse(""),
		Frecency: fs,
		Tracker:  qt,
	})

	if total != 2 {
		t.Fatalf("expected both files scored by frecency, got %d", total)
	}
	if items[0].RelativePath() != "b.go" {
		t.Fatalf("expected b.go (accessed) to rank first, got %s", items[0].RelativePath())
	}
	if scores[0].MatchType != "frecency" {
		t.Fatalf("expected frecency match type, got %s", scores[0].MatchType)
	}
}

func TestMatchAndScoreFiles_CurrentFilePenalized(t *testing.T) {
	fs, qt := newTestStores(t)
	files := []*fileindex.FileItem{
		fileindex.NewFileItem("/r/main.go", "main.go", 10, 1),
	}

	_, scores, _ := MatchAndScoreFiles(files, Context{
		RawQuery:    "main",
		Parsed:      parse("main"),
		MaxTypos:    2,
		CurrentFile: "main.go",
		Frecency:    fs,
		Tracker:     qt,
	})

	if scores[0].CurrentFilePenalty >= 0 {
		t.Fatalf("expected a negative self-penalty, got %d", scores[0].CurrentFilePenalty)
	}
}

func TestMatchAndScoreFiles_ComboBoostRewardsRepeatOpens(t *testing.T) {
	fs, qt := newTestStores(t)
	files := []*fileindex.FileItem{
		fileindex.NewFileItem("/r/main.go", "main.go", 10, 1),
		fileindex.NewFileItem("/r/manual.go", "manual.go", 10, 1),
	}
	qt.TrackQueryCompletion("proj", "man", "/r/main.go")
	qt.TrackQueryCompletion("proj", "man", "/r/main.go")
	qt.TrackQueryCompletion("proj", "man", "/r/main.go")

	items, scores, _ := MatchAndScoreFiles(files, Context{
		RawQuery:                  "man",
		Parsed:                    parse("man"),
		MaxTypos:                  2,
		Project:                   "proj",
		MinComboCount:             2,
		ComboBoostScoreMultiplier: 50,
		Frecency:                  fs,
		Tracker:                   qt,
	})

	var mainBoost, manualBoost int32
	for i, it := range items {
		switch it.RelativePath() {
		case "main.go":
			mainBoost = scores[i].ComboMatchBoost
		case "manual.go":
			manualBoost = scores[i].ComboMatchBoost
		}
	}
	if mainBoost <= manualBoost {
		t.Fatalf("expected combo-matched file to outrank the other: main=%d manual=%d", mainBoost, manualBoost)
	}
}

func TestCalculateDistancePenalty(t *testing.T) {
	if p := calculateDistancePenalty("", "examples/user/test/mod.rs"); p != 0 {
		t.Fatalf("expected 0 with no current file, got %d", p)
	}
	if p := calculateDistancePenalty("examples/user/test/main.rs", "examples/user/test/mod.rs"); p != 0 {
		t.Fatalf("expected 0 for same directory, got %d", p)
	}
	if p := calculateDistancePenalty("examples/user/test/subdir/file.rs", "examples/user/test/mod.rs"); p != -1 {
		t.Fatalf("expected -1 for one level apart, got %d", p)
	}
}

func TestSortAndPaginate_DescendingByScore(t *testing.T) {
	results := []scored{
		{file: fileindex.NewFileItem("/a", "a.go", 1, 1000), score: Score{Total: 100}},
		{file: fileindex.NewFileItem("/b", "b.go", 1, 2000), score: Score{Total: 300}},
		{file: fileindex.NewFileItem("/c", "c.go", 1, 3000), score: Score{Total: 200}},
	}
	items, scores, total := sortAndPaginate(results, Context{})
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if items[0].RelativePath() != "b.go" || scores[0].Total != 300 {
		t.Fatalf("expected b.go first, got %+v", items)
	}
}

func TestSortAndPaginate_TieBreaksByModifiedDescending(t *testing.T) {
	results := []scored{
		{file: fileindex.NewFileItem("/a", "a.go", 1, 1000), score: Score{Total: 100}},
		{file: fileindex.NewFileItem("/b", "b.go", 1, 9000), score: Score{Total: 100}},
	}
	items, _, _ := sortAndPaginate(results, Context{})
	if items[0].RelativePath() != "b.go" {
		t.Fatal("expected the more recently modified file to win the tie")
	}
}

func TestSortAndPaginate_PartialSortLargeSet(t *testing.T) {
	results := make([]scored, 0, 500)
	for i := 0; i < 500; i++ {
		results = append(results, scored{
			file:  fileindex.NewFileItem("/x", "x.go", 1, int64(i)),
			score: Score{Total: int32(i)},
		})
	}
	items, scores, total := sortAndPaginate(results, Context{Limit: 5})
	if total != 500 {
		t.Fatalf("expected total 500, got %d", total)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items for a page of 5, got %d", len(items))
	}
	if scores[0].Total != 499 {
		t.Fatalf("expected the highest score first, got %d", scores[0].Total)
	}
}
