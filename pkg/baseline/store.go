// Package baseline persists the trusted scan report for each target.
//
// A baseline is stored as the raw report it was taken from, one file per
// target, so it can be inspected or replayed with the same parser used for
// fresh scans. Writes go through a temp file in the same directory followed
// by a rename, so a reader never sees a partially written baseline.
//
// There is no cross-process lock: two calibrations racing on the same target
// both succeed and the last rename wins.
package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/autorecon/pkg/engine"
)

var (
	// ErrNotFound is returned by Load when the target has no baseline.
	ErrNotFound = errors.New("baseline not found")
	// ErrWriteFailed matches every *WriteError.
	ErrWriteFailed = errors.New("baseline write failed")
)

// WriteError wraps an I/O failure while persisting a baseline.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("baseline %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWriteFailed }

// Store keeps baselines under a root directory.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir. The directory is created on first Save.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the directory baselines are kept in.
func (s *Store) Root() string {
	return s.root
}

// Path returns the baseline file location for target.
func (s *Store) Path(target string) string {
	return filepath.Join(s.root, "baseline_"+SanitizeTarget(target)+".xml")
}

// Exists reports whether target has a baseline on disk.
func (s *Store) Exists(target string) (bool, error) {
	info, err := os.Stat(s.Path(target))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat baseline: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("baseline path %s is a directory", s.Path(target))
	}
	return true, nil
}

// Load parses the stored baseline for target.
// It returns ErrNotFound if none exists, or the parser's *engine.ReportError
// if the stored file is unreadable.
func (s *Store) Load(target string) (engine.Snapshot, error) {
	snap, err := engine.ParseReportFile(s.Path(target))
	if err != nil {
		if engine.IsReportKind(err, engine.ReportMissing) {
			return engine.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, target)
		}
		return engine.Snapshot{}, err
	}
	return snap, nil
}

// Save replaces the baseline for target with report.
func (s *Store) Save(target string, report []byte) (err error) {
	dest := s.Path(target)
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return &WriteError{Path: s.root, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(s.root, ".baseline-*.tmp")
	if err != nil {
		return &WriteError{Path: dest, Op: "create", Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(report); err != nil {
		return &WriteError{Path: dest, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &WriteError{Path: dest, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: dest, Op: "close", Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return &WriteError{Path: dest, Op: "chmod", Err: err}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return &WriteError{Path: dest, Op: "rename", Err: err}
	}
	return nil
}

// SaveFile copies the report at path into the baseline for target.
func (s *Store) SaveFile(target, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read report %s: %w", path, err)
	}
	return s.Save(target, data)
}

// SanitizeTarget maps a target string to a flat, filesystem-safe name.
// Targets that need rewriting get an "@<hash>" suffix so distinct targets
// never share a name; '@' cannot appear in a name that needed no rewriting.
func SanitizeTarget(target string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, target)
	if safe == target && target != "" {
		return safe
	}
	sum := sha256.Sum256([]byte(target))
	return safe + "@" + hex.EncodeToString(sum[:4])
}
