package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fff/internal/engine"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Fuzzy-find files by name, path segment, extension, and frecency",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Usage: "Number of ranked results to skip"},
			&cli.IntFlag{Name: "page-size", Value: 50, Usage: "Results per page"},
			&cli.StringFlag{Name: "current-file", Usage: "Path of the file currently open, for distance scoring"},
			&cli.IntFlag{Name: "combo-boost", Usage: "Score multiplier applied when a query/path combo was seen before"},
			&cli.UintFlag{Name: "min-combo-count", Usage: "Minimum prior combo count before the combo boost applies"},
			&cli.BoolFlag{Name: "json", Usage: "Emit results as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return errors.New("usage: fff search [flags] <query>")
			}

			eng, err := openEngine(c)
			if err != nil {
				return err
			}
			defer eng.CleanupFilePicker()

			res, err := eng.FuzzySearchFiles(c.Args().First(), engine.PickerOptions{
				CurrentFile:               c.String("current-file"),
				ComboBoostScoreMultiplier: int32(c.Int("combo-boost")),
				MinComboCount:             uint32(c.Uint("min-combo-count")),
				PageIndex:                 c.Int("page"),
				PageSize:                  c.Int("page-size"),
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if c.Bool("json") {
				return json.NewEncoder(os.Stdout).Encode(searchReport(res))
			}
			printSearchResult(res)
			return nil
		},
	}
}

type searchHit struct {
	Path      string `json:"path"`
	Score     int32  `json:"score"`
	MatchType string `json:"match_type"`
}

type searchReportJSON struct {
	TotalFiles   int         `json:"total_files"`
	TotalMatched int         `json:"total_matched"`
	Line         int         `json:"line,omitempty"`
	Col          int         `json:"col,omitempty"`
	Results      []searchHit `json:"results"`
}

func searchReport(res engine.SearchResult) searchReportJSON {
	report := searchReportJSON{
		TotalFiles:   res.TotalFiles,
		TotalMatched: res.TotalMatched,
		Results:      make([]searchHit, 0, len(res.Items)),
	}
	if res.Location != nil {
		report.Line = res.Location.Line
		report.Col = res.Location.Col
	}
	for i, item := range res.Items {
		hit := searchHit{Path: item.RelativePath()}
		if i < len(res.Scores) {
			hit.Score = res.Scores[i].Total
			hit.MatchType = res.Scores[i].MatchType
		}
		report.Results = append(report.Results, hit)
	}
	return report
}

func printSearchResult(res engine.SearchResult) {
	for i, item := range res.Items {
		if i < len(res.Scores) {
			fmt.Printf("%6d  %s\n", res.Scores[i].Total, item.RelativePath())
		} else {
			fmt.Println(item.RelativePath())
		}
	}
	fmt.Fprintf(os.Stderr, "%d/%d files matched\n", res.TotalMatched, res.TotalFiles)
}
