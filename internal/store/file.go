package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"icabridge/internal/logging"
)

// FileKV keeps every key in one JSON object on disk. Writes stay in memory
// until Save.
type FileKV struct {
	mu     sync.RWMutex
	path   string
	values map[string]json.RawMessage
	dirty  bool
}

// OpenFile loads path; a missing file starts empty.
func OpenFile(path string) (*FileKV, error) {
	kv := &FileKV{path: path, values: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.StoreDebug("store file %s not found, starting empty", path)
		return kv, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &kv.values); err != nil {
			return nil, fmt.Errorf("failed to parse store %s: %w", path, err)
		}
	}
	logging.StoreDebug("loaded %d keys from %s", len(kv.values), path)
	return kv, nil
}

// Path returns the backing file.
func (s *FileKV) Path() string { return s.path }

func (s *FileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *FileKV) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append(json.RawMessage(nil), value...)
	s.dirty = true
	return nil
}

func (s *FileKV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
	return nil
}

// Save writes the file through a temp file and rename. A clean store is
// not rewritten.
func (s *FileKV) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}

	s.dirty = false
	logging.Store("saved %d keys to %s", len(s.values), s.path)
	return nil
}

// Close is a no-op; unsaved changes are discarded.
func (s *FileKV) Close() error { return nil }
