package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// maxRecordFileSize caps the size of a storage record (64 MB).
// Rule descriptions dominate the global record; a large server stays well under this.
const maxRecordFileSize = 64 << 20

// recordEnvelope is the on-disk framing of every storage record.
type recordEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	Checksum      string          `json:"checksum"`
	Payload       json.RawMessage `json:"payload"`
}

// RecordStore provides atomic whole-record JSON persistence for type T.
// Save writes to a temporary file, fsyncs it and renames it over the target,
// so a reader or a crash observes either the previous record or the new one.
type RecordStore[T any] struct {
	path string
}

// NewRecordStore creates a record store for the file at path.
func NewRecordStore[T any](path string) *RecordStore[T] {
	return &RecordStore[T]{path: path}
}

// Path returns the record file path
func (s *RecordStore[T]) Path() string {
	return s.path
}

// Load reads the record. A missing record returns (nil, nil).
// A record with a bad checksum or an unknown schema returns ErrStorageCorrupted.
func (s *RecordStore[T]) Load() (*T, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if info.Size() > maxRecordFileSize {
		return nil, fmt.Errorf("%s exceeds maximum size (%d bytes > %d byte limit): %w",
			filepath.Base(s.path), info.Size(), maxRecordFileSize, ErrStorageCorrupted)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var env recordEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", filepath.Base(s.path), err, ErrStorageCorrupted)
	}
	if env.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("%s has schema version %d, expected %d: %w",
			filepath.Base(s.path), env.SchemaVersion, CurrentSchemaVersion, ErrStorageCorrupted)
	}
	if checksum(env.Payload) != env.Checksum {
		return nil, fmt.Errorf("%s checksum mismatch: %w", filepath.Base(s.path), ErrStorageCorrupted)
	}

	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return nil, fmt.Errorf("decode %s payload: %v: %w", filepath.Base(s.path), err, ErrStorageCorrupted)
	}
	return &v, nil
}

// Save atomically replaces the record with v.
func (s *RecordStore[T]) Save(v *T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(s.path), err)
	}
	data, err := json.MarshalIndent(recordEnvelope{
		SchemaVersion: CurrentSchemaVersion,
		Checksum:      checksum(payload),
		Payload:       payload,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(s.path), err)
	}
	return writeFileAtomic(s.path, data)
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *RecordStore[T]) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", s.path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory, syncs it and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// checksum hashes the compact form of payload, so the indentation MarshalIndent gives the
// embedded payload does not change the sum.
func checksum(payload []byte) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, payload); err != nil {
		compact.Reset()
		compact.Write(payload)
	}
	sum := sha256.Sum256(compact.Bytes())
	return hex.EncodeToString(sum[:])
}
