package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Filesystem stores objects under a local root directory served at publicURL.
type Filesystem struct {
	root      string
	publicURL string
}

// NewFilesystem creates the root directory when missing.
func NewFilesystem(root, publicURL string) (*Filesystem, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &Filesystem{root: root, publicURL: publicURL}, nil
}

// Root returns the directory objects are written to.
func (f *Filesystem) Root() string {
	return f.root
}

func (f *Filesystem) fullPath(path string) string {
	return filepath.Join(f.root, filepath.FromSlash(path))
}

// Exists reports whether an object has been written at path.
func (f *Filesystem) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(f.fullPath(path))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// Put writes data to a temporary file and renames it into place, so readers never see a
// partial object.
func (f *Filesystem) Put(_ context.Context, path string, data []byte, _ string) error {
	target := f.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}

// URL returns the public URL of path.
func (f *Filesystem) URL(path string) string {
	return joinURL(f.publicURL, path)
}
