package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fff/internal/engine"
)

// statusReport mirrors the teacher's JSON status-report idiom: a flat,
// machine-readable summary of one engine's health.
type statusReport struct {
	Root         string       `json:"root"`
	IndexedFiles int          `json:"indexed_files"`
	Scanning     bool         `json:"scanning"`
	GitRoot      string       `json:"git_root,omitempty"`
	HasGitRoot   bool         `json:"has_git_root"`
	Frecency     storeReport  `json:"frecency"`
	History      storeReport  `json:"history"`
}

type storeReport struct {
	Path        string         `json:"path,omitempty"`
	DiskSize    int64          `json:"disk_size"`
	EntryCounts map[string]int `json:"entry_counts,omitempty"`
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Report index health, scan progress, and store status",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Emit the report as JSON"},
		},
		Action: func(c *cli.Context) error {
			eng, err := openEngine(c)
			if err != nil {
				return err
			}
			defer eng.CleanupFilePicker()

			report := buildStatusReport(c, eng)

			if c.Bool("json") {
				return json.NewEncoder(os.Stdout).Encode(report)
			}
			printStatusReport(report)
			return nil
		},
	}
}

func buildStatusReport(c *cli.Context, eng *engine.Engine) statusReport {
	h := eng.HealthCheck()
	return statusReport{
		Root:         c.String("root"),
		IndexedFiles: h.IndexedFiles,
		Scanning:     h.Scanning,
		GitRoot:      h.GitRoot,
		HasGitRoot:   h.HasGitRoot,
		Frecency: storeReport{
			Path:        h.Frecency.Path,
			DiskSize:    h.Frecency.DiskSize,
			EntryCounts: h.Frecency.EntryCounts,
		},
		History: storeReport{
			Path:        h.History.Path,
			DiskSize:    h.History.DiskSize,
			EntryCounts: h.History.EntryCounts,
		},
	}
}

func printStatusReport(r statusReport) {
	fmt.Printf("root:          %s\n", r.Root)
	fmt.Printf("indexed files: %d\n", r.IndexedFiles)
	fmt.Printf("scanning:      %t\n", r.Scanning)
	if r.HasGitRoot {
		fmt.Printf("git root:      %s\n", r.GitRoot)
	} else {
		fmt.Println("git root:      (none)")
	}
	fmt.Printf("frecency:      path=%s size=%d entries=%v\n", r.Frecency.Path, r.Frecency.DiskSize, r.Frecency.EntryCounts)
	fmt.Printf("history:       path=%s size=%d entries=%v\n", r.History.Path, r.History.DiskSize, r.History.EntryCounts)
}
