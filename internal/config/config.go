// Package config loads project configuration for the file-finder engine:
// `.fff.kdl` as the primary format (teacher's own primary format, via
// sblinch/kdl-go) with a `.fff.toml` fallback (teacher's secondary format,
// via pelletier/go-toml/v2), generalized from the teacher's
// internal/config/kdl_config.go down to the handful of fields this engine
// needs: project root, include/exclude globs, max file size, watch
// debounce, and the combo-boost multiplier/threshold defaults.
package config

import (
	"os"
	"path/filepath"
)

// Config holds one project's tunable settings. Every field has a usable
// zero-config default (see Default), so a project with neither a .fff.kdl
// nor a .fff.toml still runs.
type Config struct {
	ProjectRoot string

	// Include, when non-empty, restricts scanning to paths matching at
	// least one of these doublestar globs. Empty means "everything not
	// excluded".
	Include []string
	// Exclude lists doublestar globs the scanner and watcher skip,
	// seeded with DefaultExclusions and extended by the config file.
	Exclude []string

	MaxFileSize     int64
	WatchDebounceMs int

	ComboBoostScoreMultiplier int32
	MinComboCount             uint32
}

// Default returns the zero-config settings for a project rooted at root.
func Default(root string) *Config {
	return &Config{
		ProjectRoot:               root,
		Exclude:                   append([]string(nil), DefaultExclusions...),
		MaxFileSize:               10 * 1024 * 1024,
		WatchDebounceMs:           100,
		ComboBoostScoreMultiplier: 50,
		MinComboCount:             2,
	}
}

// Load reads a project's configuration, preferring .fff.kdl over .fff.toml
// and falling back to Default(root) when neither file exists.
func Load(root string) (*Config, error) {
	kdlPath := filepath.Join(root, ".fff.kdl")
	if _, err := os.Stat(kdlPath); err == nil {
		data, err := os.ReadFile(kdlPath)
		if err != nil {
			return nil, err
		}
		return parseKDL(root, data)
	}

	tomlPath := filepath.Join(root, ".fff.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		data, err := os.ReadFile(tomlPath)
		if err != nil {
			return nil, err
		}
		return parseTOML(root, data)
	}

	return Default(root), nil
}

// DefaultExclusions seeds every Config's Exclude list: the directories and
// file types virtually no project wants scanned or watched, trimmed from
// the teacher's much larger per-ecosystem list down to the patterns common
// enough to apply unconditionally.
var DefaultExclusions = []string{
	"**/.*/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/target/**",
	"**/dist/**",
	"**/build/**",
	"**/out/**",
	"**/bin/**",
	"**/obj/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/venv/**",
	"**/.git/**",
	"**/.cache/**",
	"**/*.pyc",
	"**/*.so",
	"**/*.dylib",
	"**/*.dll",
	"**/*.exe",
	"**/*.o",
	"**/*.class",
}
