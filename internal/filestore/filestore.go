// Package filestore is the temporary file abstraction the import pipeline
// reads uploads from and writes job payloads to. Files live under a single
// root directory; the only addressable bucket is "imports" and any other
// bucket identifier is a hard error, not a fallback.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Bucket is the sole bucket identifier the pipeline supports.
const Bucket = "imports"

// Store reads and writes files below a root directory.
type Store struct {
	root string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: empty root directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Read returns the contents of a file in a bucket.
func (s *Store) Read(bucket, path string) ([]byte, error) {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", path, err)
	}
	return data, nil
}

// Write stores data at path within the imports bucket, creating parent
// directories as needed.
func (s *Store) Write(path string, data []byte) error {
	full, err := s.resolve(Bucket, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("filestore: create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}
	return nil
}

// resolve validates the bucket and confines the path below the root.
func (s *Store) resolve(bucket, path string) (string, error) {
	if bucket != Bucket {
		return "", fmt.Errorf("filestore: unsupported bucket %q", bucket)
	}
	clean := filepath.Clean("/" + path) // forces the path to be interpreted from the root
	full := filepath.Join(s.root, clean)
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("filestore: path %q escapes store root", path)
	}
	return full, nil
}
