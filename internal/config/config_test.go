package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFileExists(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, dir, cfg.ProjectRoot)
	require.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	require.Equal(t, DefaultExclusions, cfg.Exclude)
}

func TestLoad_PrefersKDLOverTOML(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, ".fff.kdl", `
max_file_size 2048
watch_debounce_ms 250
combo_boost {
    score_multiplier 75
    min_count 3
}
include "*.go" "*.rs"
exclude "*.generated.go"
`)
	writeTestFile(t, dir, ".fff.toml", `max_file_size = 99`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, int64(2048), cfg.MaxFileSize)
	require.Equal(t, 250, cfg.WatchDebounceMs)
	require.Equal(t, int32(75), cfg.ComboBoostScoreMultiplier)
	require.Equal(t, uint32(3), cfg.MinComboCount)
	require.Equal(t, []string{"*.go", "*.rs"}, cfg.Include)
	require.Contains(t, cfg.Exclude, "*.generated.go")
}

func TestLoad_TOMLFallback(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, ".fff.toml", `
max_file_size = 4096
watch_debounce_ms = 50
include = ["*.py"]
exclude = ["*.lock"]

[combo_boost]
score_multiplier = 10
min_count = 1
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, int64(4096), cfg.MaxFileSize)
	require.Equal(t, 50, cfg.WatchDebounceMs)
	require.Equal(t, []string{"*.py"}, cfg.Include)
	require.Contains(t, cfg.Exclude, "*.lock")
	require.Equal(t, int32(10), cfg.ComboBoostScoreMultiplier)
	require.Equal(t, uint32(1), cfg.MinComboCount)
}

func TestLoad_KDLProjectRootResolvesRelative(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, ".fff.kdl", `
project {
    root "sub/project"
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "sub", "project"), cfg.ProjectRoot)
}

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
