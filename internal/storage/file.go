package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileKV stores each key as a file under a data directory. Writes go
// through a temp file and rename so readers never observe a partial
// value.
type FileKV struct {
	dir        string
	quotaBytes int64
}

// NewFileKV creates the data directory if needed and returns a
// file-backed KV. quotaBytes <= 0 disables the capacity check.
func NewFileKV(dir string, quotaBytes int64) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileKV{dir: dir, quotaBytes: quotaBytes}, nil
}

// Get reads the value stored under key.
func (s *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Set writes the value under key, enforcing the byte quota.
func (s *FileKV) Set(key string, value []byte) error {
	if s.quotaBytes > 0 && int64(len(value)) > s.quotaBytes {
		return ErrQuotaExceeded
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

// Remove deletes the value under key. Absent keys are a no-op.
func (s *FileKV) Remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileKV) Close() error { return nil }

// path escapes the key so arbitrary key strings map onto safe filenames.
func (s *FileKV) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}
