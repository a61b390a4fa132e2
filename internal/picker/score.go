package picker

import (
	"strings"

	"github.com/standardbeagle/fff/internal/constraints"
	"github.com/standardbeagle/fff/internal/fileindex"
	"github.com/standardbeagle/fff/internal/gitstatus"
	"github.com/standardbeagle/fff/internal/queryparser"
	"github.com/standardbeagle/fff/internal/store"
)

// Score breaks down one file's total ranking score into the same
// components the original scorer reported, so callers can explain a
// ranking rather than just see the final number.
type Score struct {
	Total                int32
	BaseScore            int32
	FilenameBonus        int32
	SpecialFilenameBonus int32
	FrecencyBoost        int32
	DistancePenalty      int32
	CurrentFilePenalty   int32
	ComboMatchBoost      int32
	ExactMatch           bool
	MatchType            string
}

// Context carries the per-search tuning and side-state the scorer
// consults: the parsed query, the caller's current file (for distance and
// self-penalty), and the frecency/combo stores.
type Context struct {
	RawQuery     string
	Parsed       queryparser.Result
	MaxTypos     int
	CurrentFile  string
	Project      string
	ComboBoostScoreMultiplier int32
	MinComboCount             uint32

	Offset int
	Limit  int

	Frecency *store.FrecencyStore
	Tracker  *store.QueryTracker
}

// specialEntryPointFiles mirrors score.rs's is_special_entry_point_file,
// generalized with Go's own conventional entry-point names alongside the
// other languages the original list covered.
var specialEntryPointFiles = map[string]bool{
	"mod.rs": true, "lib.rs": true, "main.rs": true,
	"index.js": true, "index.jsx": true, "index.ts": true, "index.tsx": true,
	"index.mjs": true, "index.cjs": true, "index.vue": true,
	"__init__.py": true, "__main__.py": true,
	"main.go": true, "main.c": true,
	"index.php": true, "main.rb": true, "index.rb": true,
}

// MatchAndScoreFiles runs the full picker pipeline: constraint prefilter,
// fuzzy matching over the remaining files, and score-and-paginate. It
// mirrors original_source/crates/fff-core/src/score.rs's
// match_and_score_files, including its frecency-only fallback when the
// query carries no usable fuzzy text.
func MatchAndScoreFiles(files []*fileindex.FileItem, ctx Context) ([]*fileindex.FileItem, []Score, int) {
	if len(files) == 0 {
		return nil, nil, 0
	}

	working, ok := constraints.Apply(files, ctx.Parsed.Constraints)
	if !ok {
		working = files
	} else if len(working) == 0 {
		return nil, nil, 0
	}

	parts := fuzzyParts(ctx)
	if len(parts) == 0 {
		return scoreByFrecency(working, ctx)
	}

	matches := matchFuzzyParts(parts, working, ctx.MaxTypos)

	queryHasSeparator := strings.ContainsAny(parts[0], "/\\")
	var filenameMatches []Match
	if !queryHasSeparator {
		filenames := make([]string, len(working))
		for i, f := range working {
			filenames[i] = f.FileNameLower()
		}
		filenameMatches = MatchList(parts[0], filenames, Config{MaxTypos: ctx.MaxTypos})
	}
	filenameByIndex := make(map[int]Match, len(filenameMatches))
	for _, m := range filenameMatches {
		filenameByIndex[m.Index] = m
	}

	results := make([]scored, 0, len(matches))
	for _, m := range matches {
		file := working[m.Index]
		baseScore := m.Score

		frecencyBoost := applyFrecencyBoost(baseScore, file, ctx)
		distancePenalty := calculateDistancePenalty(ctx.CurrentFile, file.RelativePath())

		filenameMatch, hasFilenameMatch := filenameByIndex[m.Index]

		var filenameBonus int32
		var specialBonus int32
		exact := m.Exact
		matchType := "fuzzy_path"

		switch {
		case hasFilenameMatch && filenameMatch.Exact:
			filenameBonus = filenameMatch.Score / 5 * 2
			matchType = "exact_filename"
			exact = true
		case hasFilenameMatch && filenameMatch.Score >= m.Score && !queryHasSeparator:
			baseScore = filenameMatch.Score
			filenameBonus = baseScore / 6
			if filenameBonus > 30 {
				filenameBonus = 30
			}
			matchType = "fuzzy_filename"
		case !hasFilenameMatch && specialEntryPointFiles[file.FileName()]:
			specialBonus = baseScore * 5 / 100
			filenameBonus = specialBonus
		}

		currentFilePenalty := calculateCurrentFilePenalty(file, baseScore, ctx)
		comboBoost := calculateComboBoost(file, ctx)

		total := baseScore + frecencyBoost + distancePenalty + filenameBonus + currentFilePenalty + comboBoost

		results = append(results, scored{
			file: file,
			score: Score{
				Total:                total,
				BaseScore:            baseScore,
				FilenameBonus:        filenameBonus,
				SpecialFilenameBonus: specialBonus,
				FrecencyBoost:        frecencyBoost,
				DistancePenalty:      distancePenalty,
				CurrentFilePenalty:   currentFilePenalty,
				ComboMatchBoost:      comboBoost,
				ExactMatch:           exact,
				MatchType:            matchType,
			},
		})
	}

	return sortAndPaginate(results, ctx)
}

// fuzzyParts splits the parsed fuzzy query into its whitespace-delimited
// parts, dropping any shorter than two characters, matching score.rs's
// match_fuzzy_parts filtering.
func fuzzyParts(ctx Context) []string {
	raw := strings.TrimSpace(ctx.Parsed.FuzzyQuery)
	if raw == "" {
		return nil
	}
	var parts []string
	for _, p := range strings.Fields(raw) {
		if len(p) >= 2 {
			parts = append(parts, strings.ToLower(p))
		}
	}
	return parts
}

// matchFuzzyParts matches the first part against the full haystack, then
// intersects and sums scores for each remaining part, breaking early once
// nothing survives. Mirrors score.rs's multi-part AND-and-sum behavior.
func matchFuzzyParts(parts []string, files []*fileindex.FileItem, maxTypos int) []Match {
	haystack := make([]string, len(files))
	for i, f := range files {
		haystack[i] = f.RelativePathLower()
	}

	cfg := Config{MaxTypos: maxTypos}
	matches := MatchList(parts[0], haystack, cfg)
	for _, part := range parts[1:] {
		if len(matches) == 0 {
			break
		}
		byIndex := make(map[int]Match, len(matches))
		for _, m := range matches {
			byIndex[m.Index] = m
		}
		var next []Match
		for idx, m := range byIndex {
			s, ok, exact := matchOne(part, haystack[idx], cfg)
			if !ok {
				continue
			}
			total := int32(m.Score) + s
			if total > 65535 {
				total = 65535
			}
			next = append(next, Match{Index: idx, Score: total, Exact: m.Exact && exact})
		}
		matches = next
	}
	return matches
}

type scored struct {
	file  *fileindex.FileItem
	score Score
}

// scoreByFrecency ranks a constraint-filtered file set purely by frecency
// when the query carries no usable fuzzy text, matching score.rs's
// score_filtered_by_frecency fallback.
func scoreByFrecency(files []*fileindex.FileItem, ctx Context) ([]*fileindex.FileItem, []Score, int) {
	results := make([]scored, 0, len(files))
	for _, f := range files {
		total := totalFrecencyScore(f, ctx)
		currentFilePenalty := calculateCurrentFilePenalty(f, total, ctx)
		results = append(results, scored{
			file: f,
			score: Score{
				Total:              total + currentFilePenalty,
				FrecencyBoost:      total,
				CurrentFilePenalty: currentFilePenalty,
				MatchType:          "frecency",
			},
		})
	}
	return sortAndPaginate(results, ctx)
}

func totalFrecencyScore(f *fileindex.FileItem, ctx Context) int32 {
	if ctx.Frecency == nil {
		return 0
	}
	access := ctx.Frecency.AccessScore(f.RelativePath())
	mod := ctx.Frecency.ModificationScore(f.RelativePath())
	return access + mod*4
}

func applyFrecencyBoost(baseScore int32, f *fileindex.FileItem, ctx Context) int32 {
	return baseScore * totalFrecencyScore(f, ctx) / 100
}

// calculateDistancePenalty ports path_utils.rs's calculate_distance_penalty
// verbatim: directories are compared component-by-component from the root,
// and the penalty is the negated number of directory levels from the current
// file's directory up to the deepest directory it shares with the
// candidate's, floored at -20.
func calculateDistancePenalty(currentFile, candidatePath string) int32 {
	if currentFile == "" {
		return 0
	}

	currentDir := parentDir(currentFile)
	candidateDir := parentDir(candidatePath)
	if currentDir == candidateDir {
		return 0
	}

	currentParts := splitPath(currentDir)
	candidateParts := splitPath(candidateDir)

	common := 0
	for common < len(currentParts) && common < len(candidateParts) && currentParts[common] == candidateParts[common] {
		common++
	}

	depth := len(currentParts) - common
	if depth == 0 {
		return 0
	}

	penalty := -int32(depth)
	if penalty < -20 {
		penalty = -20
	}
	return penalty
}

func parentDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// calculateCurrentFilePenalty de-ranks the file the caller is already
// viewing so the picker doesn't surface it at the top of its own search,
// halving the penalty when the file has uncommitted changes worth
// revisiting.
func calculateCurrentFilePenalty(f *fileindex.FileItem, baseScore int32, ctx Context) int32 {
	if ctx.CurrentFile == "" || f.RelativePath() != ctx.CurrentFile {
		return 0
	}
	status, tracked := f.GitStatus()
	if tracked && gitstatus.IsModified(status) {
		return -(baseScore / 2)
	}
	return -baseScore
}

// calculateComboBoost rewards files the caller has repeatedly opened for
// this exact (project, query) pair, matching score.rs's three-way branch:
// an unconditional render boost when the caller disabled the threshold,
// the full multiplier once the open count clears MinComboCount, and a flat
// nudge below it.
func calculateComboBoost(f *fileindex.FileItem, ctx Context) int32 {
	if ctx.Tracker == nil {
		return 0
	}
	last, ok := ctx.Tracker.LastQueryMatch(ctx.Project, ctx.RawQuery)
	if !ok || last.FilePath != f.Path {
		return 0
	}

	switch {
	case ctx.MinComboCount == 0:
		return 1000
	case last.OpenCount >= ctx.MinComboCount:
		return int32(last.OpenCount) * ctx.ComboBoostScoreMultiplier
	default:
		return int32(last.OpenCount) * 5
	}
}
