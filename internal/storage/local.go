// Package storage keeps archived report files on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an archived file is missing.
var ErrNotFound = errors.New("archived file not found")

// LocalFS writes report archives under a single directory.
type LocalFS struct {
	dir string
}

// NewLocalFS creates the directory if needed.
func NewLocalFS(dir string) (*LocalFS, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalFS{dir: dir}, nil
}

// Dir returns the archive directory.
func (l *LocalFS) Dir() string {
	return l.dir
}

// PathFor returns the archive path of a report.
func (l *LocalFS) PathFor(reportID int64) string {
	return filepath.Join(l.dir, fmt.Sprintf("report_%d.json", reportID))
}

// Write stores data at path. The bytes land in a temp file that is renamed
// into place, so readers never observe a partial archive.
func (l *LocalFS) Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	tempPath := filepath.Join(filepath.Dir(path), "."+uuid.New().String()+".tmp")
	tempFile, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename archive: %w", err)
	}
	return nil
}

// Read returns the archived bytes at path.
func (l *LocalFS) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return data, nil
}

// Exists reports whether a regular file is present at path.
func (l *LocalFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes the archive at path. A missing file is not an error.
func (l *LocalFS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove archive: %w", err)
	}
	return nil
}
