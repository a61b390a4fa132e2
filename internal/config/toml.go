package config

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config's fields with toml struct tags; parseTOML maps
// zero-valued fields back onto Default(root) so an incomplete .fff.toml
// still yields sane settings, matching Load's .fff.kdl behavior.
type tomlConfig struct {
	Project struct {
		Root string `toml:"root"`
	} `toml:"project"`
	MaxFileSize     int64    `toml:"max_file_size"`
	WatchDebounceMs int      `toml:"watch_debounce_ms"`
	Include         []string `toml:"include"`
	Exclude         []string `toml:"exclude"`
	ComboBoost      struct {
		ScoreMultiplier int32  `toml:"score_multiplier"`
		MinCount        uint32 `toml:"min_count"`
	} `toml:"combo_boost"`
}

func parseTOML(root string, content []byte) (*Config, error) {
	var t tomlConfig
	if err := toml.Unmarshal(content, &t); err != nil {
		return nil, fmt.Errorf("parse .fff.toml: %w", err)
	}

	cfg := Default(root)
	if t.Project.Root != "" {
		if filepath.IsAbs(t.Project.Root) {
			cfg.ProjectRoot = filepath.Clean(t.Project.Root)
		} else {
			cfg.ProjectRoot = filepath.Clean(filepath.Join(root, t.Project.Root))
		}
	}
	if t.MaxFileSize > 0 {
		cfg.MaxFileSize = t.MaxFileSize
	}
	if t.WatchDebounceMs > 0 {
		cfg.WatchDebounceMs = t.WatchDebounceMs
	}
	if len(t.Include) > 0 {
		cfg.Include = t.Include
	}
	if len(t.Exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, t.Exclude...)
	}
	if t.ComboBoost.ScoreMultiplier > 0 {
		cfg.ComboBoostScoreMultiplier = t.ComboBoost.ScoreMultiplier
	}
	if t.ComboBoost.MinCount > 0 {
		cfg.MinComboCount = t.ComboBoost.MinCount
	}

	return cfg, nil
}
