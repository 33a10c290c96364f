package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem stores blobs as files below a base directory. Keys are sharded by their first
// two characters to keep directories small: key "ab12..." is stored in <base>/ab/ab12...
type Filesystem struct {
	BaseDir string
}

// NewFilesystem returns a Filesystem backend rooted at baseDir, creating it if needed.
func NewFilesystem(baseDir string) (*Filesystem, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("err creating media directory: %w", err)
	}
	return &Filesystem{BaseDir: baseDir}, nil
}

var _ Backend = &Filesystem{}

// Put copies r into a new file for key. The file is written under a temporary name and
// renamed once complete, so a reader never sees a partial blob.
func (fs *Filesystem) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get opens the file stored for key.
func (fs *Filesystem) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := fs.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return f, err
}

// Remove deletes the file stored for key. Removing a missing key is not an error.
func (fs *Filesystem) Remove(ctx context.Context, key string) error {
	path, err := fs.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// path builds the location of a key's file, rejecting keys that could escape BaseDir.
func (fs *Filesystem) path(key string) (string, error) {
	if len(key) < 2 || strings.ContainsAny(key, `/\.`) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(fs.BaseDir, key[:2], key), nil
}
