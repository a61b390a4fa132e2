package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/fff/internal/debug"
	"github.com/standardbeagle/fff/internal/engine"
	"github.com/standardbeagle/fff/internal/store"
)

// Version is overridden at build time via -ldflags, following the
// teacher's own version-injection convention.
var Version = "dev"

// openEngine resolves --root, loads (or defaults) its config, opens the
// frecency/history stores under .fff/ inside the root, and runs the
// initial scan synchronously so every subcommand sees a populated index.
func openEngine(c *cli.Context) (*engine.Engine, error) {
	root := c.String("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}

	eng, err := engine.New(root)
	if err != nil {
		return nil, fmt.Errorf("open engine at %s: %w", root, err)
	}

	stateDir := filepath.Join(root, ".fff")
	if err := eng.InitDB(
		store.DefaultFrecencySnapshotPath(stateDir),
		store.DefaultSnapshotPath(stateDir),
		c.Bool("unsafe-no-lock"),
	); err != nil {
		return nil, fmt.Errorf("init stores: %w", err)
	}

	if err := eng.InitFilePicker(); err != nil {
		return nil, fmt.Errorf("init file picker: %w", err)
	}
	eng.WaitForInitialScan(10 * time.Second)

	return eng, nil
}

func main() {
	app := &cli.App{
		Name:                   "fff",
		Usage:                  "In-process file finder and live-grep engine",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root to index (defaults to the current directory)",
			},
			&cli.BoolFlag{
				Name:  "unsafe-no-lock",
				Usage: "Accept weaker store durability for lower latency",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			searchCommand(),
			grepCommand(),
			statusCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fff:", err)
		os.Exit(1)
	}
}
