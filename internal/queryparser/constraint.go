// Package queryparser tokenizes a user-typed search string into a list of
// constraints plus a residual fuzzy-text query, following a shared pipeline
// with two dialects (picker and grep). Constraint evaluation itself lives in
// internal/constraints; this package only classifies and structures tokens.
package queryparser

import "strings"

// Kind discriminates the closed set of constraint variants. Evaluation
// dispatches on Kind rather than through an open interface, so the hot
// filtering loop in internal/constraints can stay branch-predictable.
type Kind int

const (
	KindExtension Kind = iota
	KindGlob
	KindPathSegment
	KindGitStatus
	KindText
	KindNot
)

func (k Kind) String() string {
	switch k {
	case KindExtension:
		return "extension"
	case KindGlob:
		return "glob"
	case KindPathSegment:
		return "path_segment"
	case KindGitStatus:
		return "git_status"
	case KindText:
		return "text"
	case KindNot:
		return "not"
	default:
		return "unknown"
	}
}

// GitStatus names the four status buckets status: can be prefix-matched
// against; "type:" tokens are folded into KindExtension (see DESIGN.md).
type GitStatus int

const (
	GitStatusModified GitStatus = iota
	GitStatusUntracked
	GitStatusStaged
	GitStatusClean
)

func (s GitStatus) String() string {
	switch s {
	case GitStatusModified:
		return "modified"
	case GitStatusUntracked:
		return "untracked"
	case GitStatusStaged:
		return "staged"
	case GitStatusClean:
		return "clean"
	default:
		return "unknown"
	}
}

// Constraint is one classified token. Value holds the extension (without
// leading dot), the raw glob pattern, the path segment, or free text
// depending on Kind; GitStatus and Inner are only meaningful for their
// respective Kinds.
type Constraint struct {
	Kind      Kind
	Value     string
	GitStatus GitStatus
	Inner     *Constraint
}

func NewExtension(ext string) Constraint {
	return Constraint{Kind: KindExtension, Value: strings.ToLower(ext)}
}

func NewGlob(pattern string) Constraint {
	return Constraint{Kind: KindGlob, Value: pattern}
}

func NewPathSegment(seg string) Constraint {
	return Constraint{Kind: KindPathSegment, Value: strings.ToLower(seg)}
}

func NewGitStatus(status GitStatus) Constraint {
	return Constraint{Kind: KindGitStatus, GitStatus: status}
}

func NewText(text string) Constraint {
	return Constraint{Kind: KindText, Value: strings.ToLower(text)}
}

func NewNot(inner Constraint) Constraint {
	return Constraint{Kind: KindNot, Inner: &inner}
}

// IsExtensionLike reports whether this constraint is an extension
// constraint, the kind internal/constraints partitions into the OR-ed
// extension group; a negated extension is not, and is evaluated with the
// AND-ed remainder.
func (c Constraint) IsExtensionLike() bool {
	return c.Kind == KindExtension
}
