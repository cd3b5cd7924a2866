package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cannabuben/cannabuben/pkg/domain"
)

// Store persists one credential pair per principal namespace.
// Implementations must replace and remove token and email as a unit.
type Store interface {
	Load(p domain.Principal) (domain.Credentials, error)
	Save(p domain.Principal, c domain.Credentials) error
	Clear(p domain.Principal) error
}

// FileStore keeps each namespace in its own JSON file under dir.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(p domain.Principal) string {
	return filepath.Join(s.dir, "session-"+p.Namespace()+".json")
}

// Load returns the stored pair, or the zero value when nothing usable is stored.
// A corrupt or half-written record is removed.
func (s *FileStore) Load(p domain.Principal) (domain.Credentials, error) {
	data, err := os.ReadFile(s.path(p))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("session.FileStore.Load: %w", err)
	}
	var c domain.Credentials
	if err := json.Unmarshal(data, &c); err != nil || !c.Valid() {
		if clearErr := s.Clear(p); clearErr != nil {
			return domain.Credentials{}, clearErr
		}
		return domain.Credentials{}, nil
	}
	return c, nil
}

// Save writes the pair to a temp file and renames it over the old record.
func (s *FileStore) Save(p domain.Principal, c domain.Credentials) error {
	if !c.Valid() {
		return fmt.Errorf("session.FileStore.Save: %w", ErrIncompleteCredentials)
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("session.FileStore.Save: create dir: %w", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("session.FileStore.Save: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("session.FileStore.Save: stage: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("session.FileStore.Save: write: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("session.FileStore.Save: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session.FileStore.Save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(p)); err != nil {
		return fmt.Errorf("session.FileStore.Save: replace: %w", err)
	}
	return nil
}

// Clear removes the namespace's record. Clearing an empty namespace is not an error.
func (s *FileStore) Clear(p domain.Principal) error {
	if err := os.Remove(s.path(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session.FileStore.Clear: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.Mutex
	creds map[domain.Principal]domain.Credentials
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[domain.Principal]domain.Credentials)}
}

func (s *MemoryStore) Load(p domain.Principal) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds[p], nil
}

func (s *MemoryStore) Save(p domain.Principal, c domain.Credentials) error {
	if !c.Valid() {
		return fmt.Errorf("session.MemoryStore.Save: %w", ErrIncompleteCredentials)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[p] = c
	return nil
}

func (s *MemoryStore) Clear(p domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, p)
	return nil
}
