package rest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SessionStore persists the provider session secret so CLI invocations and
// app restarts keep their authenticated session.
type SessionStore interface {
	Load() (string, error)
	Save(secret string) error
	Clear() error
}

// NewMemorySessionStore returns a SessionStore holding the secret in
// process memory only.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// MemorySessionStore implements SessionStore for tests and embedded use.
type MemorySessionStore struct {
	mu     sync.Mutex
	secret string
}

func (s *MemorySessionStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secret, nil
}

func (s *MemorySessionStore) Save(secret string) error {
	s.mu.Lock()
	s.secret = secret
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Clear() error {
	return s.Save("")
}

// FileSessionStore keeps the secret in a single file, created with owner-only
// permissions.
type FileSessionStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSessionStore builds a file-backed store at path.
func NewFileSessionStore(path string) (*FileSessionStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session store: path is required")
	}
	return &FileSessionStore{path: path}, nil
}

func (s *FileSessionStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read session file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileSessionStore) Save(secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(secret), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
