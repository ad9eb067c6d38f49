// Package staging owns the local directory that screenshots are pulled into.
//
// The directory is exclusively owned by one run at a time. The retriever
// holds an advisory lock on a sibling "<dir>.lock" file while it wipes and
// repopulates the directory; the verifier only reads it afterwards.
package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when another process holds the staging lock.
var ErrBusy = errors.New("staging directory is in use by another run")

// Lock wraps a flock file lock guarding a staging directory.
type Lock struct {
	flock *flock.Flock
	path  string
}

// NewLock creates the lock guarding dir. The lock file lives next to dir
// so that wiping dir never removes it.
func NewLock(dir string) *Lock {
	path := filepath.Clean(dir) + ".lock"
	return &Lock{
		flock: flock.New(path),
		path:  path,
	}
}

// TryLock acquires the lock without blocking. It returns ErrBusy if another
// process already holds it.
func (l *Lock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to try lock on %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("%w (lock: %s)", ErrBusy, l.path)
	}
	return nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Reset destroys dir and everything under it, then recreates it empty.
func Reset(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove staging directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory %s: %w", dir, err)
	}
	return nil
}

// Entry is a regular file found under the staging directory.
type Entry struct {
	Name string // Relative to the staging directory, slash-separated
	Path string
	Size int64
}

// List walks dir recursively and returns its regular files sorted by name.
// If extensions is non-empty, only files whose lower-cased extension is in
// the list are returned.
//
// adb creates a subdirectory named after the source when the destination
// already exists, so the walk is recursive rather than one level deep.
func List(dir string, extensions []string) ([]Entry, error) {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Name: filepath.ToSlash(rel),
			Path: path,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list staging directory %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
