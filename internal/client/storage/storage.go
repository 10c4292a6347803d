// Package storage keeps the command-line client's session on disk and reads
// item fields from the terminal.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSessionFile is used when no path is configured.
const DefaultSessionFile = ".itemkeeper-session.json"

// LocalStorage persists a single Session as JSON. The file is written with
// owner-only permissions since it holds a bearer token.
type LocalStorage struct {
	Path string

	mu sync.Mutex
}

// NewLocalStorage returns a LocalStorage for path, or DefaultSessionFile in
// the user's home directory when path is empty.
func NewLocalStorage(path string) *LocalStorage {
	if path == "" {
		path = DefaultSessionFile
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, DefaultSessionFile)
		}
	}
	return &LocalStorage{Path: path}
}

// Load returns the stored session, or nil when none has been saved.
func (ls *LocalStorage) Load() (*Session, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	data, err := os.ReadFile(ls.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", ls.Path, err)
	}
	return &s, nil
}

// Save replaces the stored session.
func (ls *LocalStorage) Save(s *Session) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ls.Path, data, 0o600)
}

// Clear removes the stored session. Clearing an absent session is not an error.
func (ls *LocalStorage) Clear() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := os.Remove(ls.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
