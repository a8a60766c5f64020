// Package media stores uploaded images on the local filesystem.
package media

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for names that are empty or leave the root
var ErrInvalidName = errors.New("invalid file name")

// Store keeps files under a root directory
type Store struct {
	root string
}

// New creates a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's directory
func (s *Store) Root() string {
	return s.root
}

// resolve turns a slash-separated relative name into a path inside root
func (s *Store) resolve(name string) (string, string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + strings.TrimSpace(name)))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.Contains(name, "..") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Save writes r to name, replacing any existing file, and returns the
// cleaned name. The file is written to a temporary name first.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	clean, full, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", clean, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename %s: %w", clean, err)
	}
	return clean, nil
}

// Remove deletes name. A missing file is not an error.
func (s *Store) Remove(name string) error {
	_, full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether name is present
func (s *Store) Exists(name string) bool {
	_, full, err := s.resolve(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}
