package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxYAMLFileSize bounds connected-lint.yml (1 MB).
const maxYAMLFileSize = 1 << 20

// YAMLStore reads and writes one YAML document of type T.
type YAMLStore[T any] struct {
	path         string
	allowMissing bool // Load returns the zero value for a missing file
}

// NewYAMLStore creates a store for rootDir/filename.
func NewYAMLStore[T any](rootDir, filename string, allowMissing bool) *YAMLStore[T] {
	return &YAMLStore[T]{
		path:         filepath.Join(rootDir, filename),
		allowMissing: allowMissing,
	}
}

// Path returns the full file path
func (s *YAMLStore[T]) Path() string {
	return s.path
}

// Load decodes the file. Files larger than maxYAMLFileSize are rejected without being read in full.
func (s *YAMLStore[T]) Load() (T, error) {
	var result T
	name := filepath.Base(s.path)

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && s.allowMissing {
			return result, nil
		}
		return result, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxYAMLFileSize+1))
	if err != nil {
		return result, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxYAMLFileSize {
		return result, fmt.Errorf("%s exceeds maximum size of %d bytes", name, maxYAMLFileSize)
	}

	if err := yaml.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("invalid %s: %w", name, err)
	}
	return result, nil
}

// Save replaces the file atomically. The temp file is created owner-only and keeps that
// mode after the rename, since the configuration may hold credentials.
func (s *YAMLStore[T]) Save(data T) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(s.path), err)
	}
	return writeFileAtomic(s.path, out)
}
