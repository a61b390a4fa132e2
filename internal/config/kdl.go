package config

import (
	"fmt"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseKDL parses a .fff.kdl document into a Config seeded with Default(root),
// walking the node tree the same way the teacher's parseKDL does: a
// top-level node per section, each argument read by type-asserting its
// first argument value. Most knobs are top-level nodes; project { root } and
// combo_boost { score_multiplier min_count } are the nested blocks.
func parseKDL(root string, content []byte) (*Config, error) {
	cfg := Default(root)

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parse .fff.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				if nodeName(cn) == "root" {
					if s, ok := firstStringArg(cn); ok {
						cfg.ProjectRoot = resolveRoot(root, s)
					}
				}
			}
		case "max_file_size":
			if v, ok := firstIntArg(n); ok {
				cfg.MaxFileSize = int64(v)
			}
		case "watch_debounce_ms":
			if v, ok := firstIntArg(n); ok {
				cfg.WatchDebounceMs = v
			}
		case "combo_boost":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "score_multiplier":
					if v, ok := firstIntArg(cn); ok {
						cfg.ComboBoostScoreMultiplier = int32(v)
					}
				case "min_count":
					if v, ok := firstIntArg(cn); ok {
						cfg.MinComboCount = uint32(v)
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		}
	}

	return cfg, nil
}

func resolveRoot(configDir, root string) string {
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Clean(filepath.Join(configDir, root))
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

// collectStringArgs reads either the inline form (`exclude "a" "b"`) or the
// block form (`exclude { "a"; "b" }` — each pattern its own child node name).
func collectStringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		for _, child := range n.Children {
			if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
