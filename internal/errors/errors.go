// Package errors defines the engine's typed error kinds, following the
// fatal/logged/dropped classification of spec.md §7: small structs with an
// Unwrap() for errors.Is/errors.As chains rather than bare errors.New
// strings, so callers can pattern-match on kind instead of message text.
package errors

import (
	"fmt"
	"time"
)

// ErrorType names the broad category of an engine error.
type ErrorType string

const (
	ErrorTypeScan    ErrorType = "scan"
	ErrorTypeWatch   ErrorType = "watch"
	ErrorTypeParse   ErrorType = "parse"
	ErrorTypeSearch  ErrorType = "search"
	ErrorTypeStore   ErrorType = "store"
	ErrorTypeMmap    ErrorType = "mmap"
	ErrorTypeGit     ErrorType = "git"
	ErrorTypeConfig  ErrorType = "config"
	ErrorTypeFile    ErrorType = "file"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeInternal ErrorType = "internal"
)

// ScanError represents a failure during the initial directory walk or a
// triggered rescan.
type ScanError struct {
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
	Recoverable bool
}

func NewScanError(op, path string, err error) *ScanError {
	return &ScanError{Operation: op, Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *ScanError) WithRecoverable(recoverable bool) *ScanError {
	e.Recoverable = recoverable
	return e
}

func (e *ScanError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("scan %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("scan %s failed: %v", e.Operation, e.Underlying)
}

func (e *ScanError) Unwrap() error { return e.Underlying }

// WatchError represents a failure creating or running the file-system
// watcher — fatal-to-a-call per spec.md §7 ("file-watcher creation failure").
type WatchError struct {
	Path       string
	Underlying error
	Timestamp  time.Time
}

func NewWatchError(path string, err error) *WatchError {
	return &WatchError{Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watch failed for %s: %v", e.Path, e.Underlying)
}

func (e *WatchError) Unwrap() error { return e.Underlying }

// ParseError represents a query-parser failure at a specific token.
type ParseError struct {
	Query      string
	Token      string
	Underlying error
	Timestamp  time.Time
}

func NewParseError(query, token string, err error) *ParseError {
	return &ParseError{Query: query, Token: token, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in query %q (near token %q): %v", e.Query, e.Token, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// SearchError represents a picker or grep search failure.
type SearchError struct {
	Pattern    string
	Underlying error
	Timestamp  time.Time
}

func NewSearchError(pattern string, err error) *SearchError {
	return &SearchError{Pattern: pattern, Underlying: err, Timestamp: time.Now()}
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search failed for pattern %q: %v", e.Pattern, e.Underlying)
}

func (e *SearchError) Unwrap() error { return e.Underlying }

// StoreError represents a frecency/history-store failure: open, read,
// write, commit, or stale-reader cleanup, per spec.md §7.
type StoreError struct {
	Store      string // "frecency" or "history"
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewStoreError(store, op string, err error) *StoreError {
	return &StoreError{Store: store, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s failed: %v", e.Store, e.Operation, e.Underlying)
}

func (e *StoreError) Unwrap() error { return e.Underlying }

// MmapError represents a failure mapping a single file; per spec.md §7 this
// is logged-and-recovered (the file is skipped), never fatal to the call.
type MmapError struct {
	Path       string
	Underlying error
	Timestamp  time.Time
}

func NewMmapError(path string, err error) *MmapError {
	return &MmapError{Path: path, Underlying: err, Timestamp: time.Now()}
}

func (e *MmapError) Error() string {
	return fmt.Sprintf("mmap failed for %s: %v", e.Path, e.Underlying)
}

func (e *MmapError) Unwrap() error { return e.Underlying }

// GitError represents a failure invoking or parsing the git CLI for status.
type GitError struct {
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewGitError(op string, err error) *GitError {
	return &GitError{Operation: op, Underlying: err, Timestamp: time.Now()}
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s failed: %v", e.Operation, e.Underlying)
}

func (e *GitError) Unwrap() error { return e.Underlying }

// ConfigError represents a configuration load/validation error.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err, Timestamp: time.Now()}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// FileError represents a file-related error (open/stat/read failures
// outside the scan/mmap paths, e.g. canonicalization).
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewFileError(op, path string, err error) *FileError {
	errType := ErrorTypeFile
	if isPermissionError(err) {
		errType = ErrorTypePermission
	} else if isNotFoundError(err) {
		errType = ErrorTypeFileNotFound
	}
	return &FileError{Type: errType, Path: path, Operation: op, Underlying: err, Timestamp: time.Now()}
}

func isNotFoundError(err error) bool {
	return err != nil && err.Error() == "no such file or directory"
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return s == "permission denied" || s == "access denied"
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error { return e.Underlying }

// MultiError aggregates multiple errors, used when a batch operation
// (e.g. a rescan) wants to report every failure without aborting the rest.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

func (e *MultiError) Unwrap() []error { return e.Errors }

func (e *MultiError) HasErrors() bool { return len(e.Errors) > 0 }
