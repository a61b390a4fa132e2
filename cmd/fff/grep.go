package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fff/internal/engine"
	"github.com/standardbeagle/fff/internal/grep"
)

func grepCommand() *cli.Command {
	return &cli.Command{
		Name:      "grep",
		Usage:     "Search file contents across the indexed tree",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Value: "plain",
				Usage: "Search mode: plain, regex, or fuzzy",
			},
			&cli.BoolFlag{Name: "smart-case", Usage: "Case-insensitive unless the query contains an uppercase letter"},
			&cli.IntFlag{Name: "file-offset", Usage: "Position in the filtered, frecency-sorted file list to resume from (the previous page's next file offset)"},
			&cli.IntFlag{Name: "page-size", Value: 50, Usage: "Maximum matches per page"},
			&cli.Int64Flag{Name: "max-file-size", Value: 10 << 20, Usage: "Skip files larger than this many bytes"},
			&cli.IntFlag{Name: "max-matches-per-file", Value: 200, Usage: "Cap matches reported per file"},
			&cli.IntFlag{Name: "time-budget-ms", Usage: "Abort the search after this many milliseconds (0 = unbounded)"},
			&cli.BoolFlag{Name: "json", Usage: "Emit results as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return errors.New("usage: fff grep [flags] <query>")
			}

			eng, err := openEngine(c)
			if err != nil {
				return err
			}
			defer eng.CleanupFilePicker()

			res, err := eng.LiveGrep(c.Args().First(), engine.GrepOptions{
				FileOffset:        c.Int("file-offset"),
				PageSize:          c.Int("page-size"),
				MaxFileSize:       c.Int64("max-file-size"),
				MaxMatchesPerFile: c.Int("max-matches-per-file"),
				SmartCase:         c.Bool("smart-case"),
				Mode:              c.String("mode"),
				TimeBudgetMs:      c.Int("time-budget-ms"),
			})
			if err != nil {
				return fmt.Errorf("grep: %w", err)
			}

			if c.Bool("json") {
				return json.NewEncoder(os.Stdout).Encode(grepReport(res))
			}
			printGrepResult(res)
			return nil
		},
	}
}

type grepHit struct {
	Path       string `json:"path"`
	Line       uint64 `json:"line"`
	Col        int    `json:"col"`
	Content    string `json:"content"`
	FuzzyScore *uint16 `json:"fuzzy_score,omitempty"`
}

type grepReportJSON struct {
	TotalMatchCount    int       `json:"total_match_count"`
	TotalFilesSearched int       `json:"total_files_searched"`
	TotalFiles         int       `json:"total_files"`
	NextFileOffset     int       `json:"next_file_offset,omitempty"`
	RegexFallbackError string    `json:"regex_fallback_error,omitempty"`
	Matches            []grepHit `json:"matches"`
}

func grepReport(res grep.Result) grepReportJSON {
	report := grepReportJSON{
		TotalMatchCount:    res.TotalMatchCount,
		TotalFilesSearched: res.TotalFilesSearched,
		TotalFiles:         res.TotalFiles,
		NextFileOffset:     res.NextFileOffset,
		RegexFallbackError: res.RegexFallbackError,
		Matches:            make([]grepHit, 0, len(res.Matches)),
	}
	for _, m := range res.Matches {
		path := ""
		if m.FileIndex >= 0 && m.FileIndex < len(res.Files) {
			path = res.Files[m.FileIndex].RelativePath()
		}
		report.Matches = append(report.Matches, grepHit{
			Path:       path,
			Line:       m.LineNumber,
			Col:        m.Col,
			Content:    m.LineContent,
			FuzzyScore: m.FuzzyScore,
		})
	}
	return report
}

func printGrepResult(res grep.Result) {
	for _, m := range res.Matches {
		path := ""
		if m.FileIndex >= 0 && m.FileIndex < len(res.Files) {
			path = res.Files[m.FileIndex].RelativePath()
		}
		fmt.Printf("%s:%d:%d: %s\n", path, m.LineNumber, m.Col, m.LineContent)
	}
	if res.RegexFallbackError != "" {
		fmt.Fprintf(os.Stderr, "regex fallback: %s\n", res.RegexFallbackError)
	}
	fmt.Fprintf(os.Stderr, "%d matches in %d/%d files searched\n", res.TotalMatchCount, res.TotalFilesSearched, res.TotalFiles)
}
