package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store persists opaque session blobs by ID. Implementations must be
// safe for concurrent use.
type Store interface {
	// Set stores data under id, replacing any previous blob.
	Set(id string, data []byte) error

	// Get retrieves the blob stored under id. A missing session is
	// reported with ErrNotFound.
	Get(id string) ([]byte, error)

	// Delete removes the blob stored under id. Deleting a session that
	// does not exist is a no-op.
	Delete(id string) error
}

// sessionExt is the file extension FileStore writes blobs with.
const sessionExt = ".json"

// FileStore keeps each session as one file inside a directory. Writes
// go through a temp file and a rename, so a crash mid-save leaves the
// previous blob intact.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created
// on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory blobs are stored in.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) (string, error) {
	// IDs become file names; anything with a separator in it could
	// address outside the store directory.
	if id == "" || id != filepath.Base(id) {
		return "", fmt.Errorf("%w: %q", ErrBadID, id)
	}
	return filepath.Join(s.dir, id+sessionExt), nil
}

// Set implements Store.
func (s *FileStore) Set(id string, data []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get implements Store.
func (s *FileStore) Get(id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return data, err
}

// Delete implements Store.
func (s *FileStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemStore is an in-memory Store for tests and throwaway sessions.
type MemStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string][]byte)}
}

// Set implements Store.
func (s *MemStore) Set(id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("%w: %q", ErrBadID, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.m[id] = buf
	return nil
}

// Get implements Store.
func (s *MemStore) Get(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.m[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Delete implements Store.
func (s *MemStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

// Len reports how many sessions the store holds.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
