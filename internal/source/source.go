// Package source abstracts the file store the pipeline reads documents from.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store is the narrow file access surface the pipeline needs.
type Store interface {
	ReadAllText(path string) (string, error)
	LastModified(path string) (time.Time, error)
	FileName(path string) string
	Exists(path string) bool
}

// NotFoundError reports a source path that does not resolve in the store.
// It carries the final path segment for diagnostics.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("source file not found: %s", e.Name)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// OSStore reads documents from the local filesystem, rooted at Dir.
type OSStore struct {
	Dir string
}

// NewOSStore returns a Store rooted at dir.
func NewOSStore(dir string) *OSStore {
	return &OSStore{Dir: dir}
}

func (s *OSStore) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Dir, path)
}

// ReadAllText returns the full contents of path as a string.
func (s *OSStore) ReadAllText(path string) (string, error) {
	full := s.resolve(path)
	data, err := os.ReadFile(full) // #nosec G304 -- paths come from controlled content discovery.
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Name: filepath.Base(path)}
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// LastModified returns the modification time of path.
func (s *OSStore) LastModified(path string) (time.Time, error) {
	info, err := os.Stat(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, &NotFoundError{Name: filepath.Base(path)}
		}
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// FileName returns the final path segment without its extension.
func (s *OSStore) FileName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Exists reports whether path resolves in the store.
func (s *OSStore) Exists(path string) bool {
	_, err := os.Stat(s.resolve(path))
	return err == nil
}
