package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TempStore scopes short-lived files used by upload flows. Files are written
// under the base directory and removed by the caller on every exit path.
type TempStore struct {
	baseDir string
}

// NewTempStore ensures the base directory exists and returns a handle. An
// empty baseDir falls back to the system temp directory.
func NewTempStore(baseDir string) (*TempStore, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "sfp-uploads")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &TempStore{baseDir: baseDir}, nil
}

// Save streams the reader into a fresh temporary file, enforcing maxBytes.
// It returns the absolute path of the written file.
func (s *TempStore) Save(pattern string, r io.Reader, maxBytes int64) (string, error) {
	file, err := os.CreateTemp(s.baseDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	limited := io.LimitReader(r, maxBytes+1)
	written, err := io.Copy(file, limited)
	if err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if written > maxBytes {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", maxBytes)
	}

	return file.Name(), nil
}

// Remove deletes a stored file if present.
func (s *TempStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}
