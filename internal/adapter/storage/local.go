// Package storage persists verified visuals, on local disk by default or in
// an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// VisualsSubdir is the directory under the media root that holds images.
const VisualsSubdir = "visuals"

// LocalStore writes images to <media>/visuals.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store rooted at <mediaDir>/visuals. The directory
// is created on first save.
func NewLocalStore(mediaDir string) *LocalStore {
	return &LocalStore{dir: filepath.Join(mediaDir, VisualsSubdir)}
}

// Dir returns the directory images are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Save writes data to the named file. Any earlier image stored under the
// same stem with a different extension is removed, so a slot holds one file
// whatever format was downloaded into it last.
func (s *LocalStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create visuals dir: %w", err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // images are world-readable
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := s.removeSiblings(name); err != nil {
		return "", err
	}
	return path, nil
}

func (s *LocalStore) removeSiblings(name string) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list visuals dir: %w", err)
	}
	stem := Stem(name)
	for _, e := range entries {
		if e.IsDir() || e.Name() == name || Stem(e.Name()) != stem {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Stem strips the extension from an image name.
func Stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
