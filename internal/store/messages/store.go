// Package messages holds the single current message set and persists it to one JSON file.
package messages

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the storage file inside the storage directory.
const FileName = "msg.json"

var (
	// ErrEmptyMessage is returned by Replace when there is no payload to store.
	ErrEmptyMessage = errors.New("message set is empty")
	// ErrNotLoaded is returned by Replace before Load has run.
	ErrNotLoaded = errors.New("message store not loaded")
)

var emptySet = json.RawMessage(`[]`)

// Store is a last-writer-wins holder for one JSON value.
// Reads never touch the disk; the file only backs restarts.
type Store struct {
	mu   sync.RWMutex
	path string
	msg  json.RawMessage
	live bool
}

// New returns an unloaded store backed by path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load adopts the persisted value, or an empty array when the file does not exist.
// A file that is not valid JSON is an error and is left untouched.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.msg = emptySet
	case err != nil:
		return fmt.Errorf("failed to read message file %s: %w", s.path, err)
	default:
		msg, err := compact(data)
		if err != nil {
			return fmt.Errorf("corrupt message file %s: %w", s.path, err)
		}
		s.msg = msg
	}

	s.live = true
	return nil
}

// Live reports whether Load has completed.
func (s *Store) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// Read returns the current message set. Callers must not modify it.
func (s *Store) Read() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.live {
		return emptySet
	}
	return s.msg
}

// Replace persists msg and then makes it the current value. When the write
// fails the previous value stays current, in memory and on disk.
func (s *Store) Replace(msg json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(msg)) == 0 {
		return nil, ErrEmptyMessage
	}
	data, err := compact(msg)
	if err != nil {
		return nil, fmt.Errorf("invalid message set: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return nil, ErrNotLoaded
	}
	if err := writeFile(s.path, data); err != nil {
		return nil, err
	}
	s.msg = data
	return data, nil
}

func compact(data []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFile replaces path through a temp file in the same directory, so a
// crash mid-write leaves either the old or the new content.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write message file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync message file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close message file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod message file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace message file: %w", err)
	}
	return nil
}
