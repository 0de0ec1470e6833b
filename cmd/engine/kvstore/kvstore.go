// Package kvstore is a small JSON-document key-value store on disk. Each key
// is one top-level field of the document. Writes replace the file atomically.
package kvstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/afero"
)

// Store is safe for concurrent use.
type Store struct {
	fs   afero.Fs
	path string

	mu      sync.RWMutex
	data    map[string]json.RawMessage
	written []byte
}

// Open reads path if it exists. A missing file is an empty store.
func Open(fs afero.Fs, path string) (*Store, error) {
	s := &Store{fs: fs, path: path, data: map[string]json.RawMessage{}}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Reload re-reads the file and reports whether its content differs from
// what this store last read or wrote.
func (s *Store) Reload() (bool, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			raw = nil
		} else {
			return false, fmt.Errorf("reading %s: %w", s.path, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(raw, s.written) {
		return false, nil
	}
	data := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return false, fmt.Errorf("parsing %s: %w", s.path, err)
		}
	}
	s.data = data
	s.written = raw
	return true, nil
}

// Get decodes key into v and reports whether it was present.
func (s *Store) Get(key string, v any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// Has reports whether key is present.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Set overwrites key with v and writes the file.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := maps.Clone(s.data)
	next[key] = raw
	return s.commit(next)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	next := maps.Clone(s.data)
	delete(next, key)
	return s.commit(next)
}

// Clear removes every key.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(map[string]json.RawMessage{})
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

// commit must be called with the write lock held. The in-memory map only
// changes once the file is in place.
func (s *Store) commit(next map[string]json.RawMessage) error {
	raw, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	s.data = next
	s.written = raw
	return nil
}
