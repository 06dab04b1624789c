package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store keeps JSON documents on disk as <base>/<collection>/<id>.json.
// Writes go through a temp file and rename so readers never see a
// partial document.
type Store struct {
	basePath string
	mu       sync.RWMutex
}

// NewStore creates a new local JSON store
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// BasePath returns the store's root directory
func (s *Store) BasePath() string {
	return s.basePath
}

// Save writes a document, replacing any existing one
func (s *Store) Save(collection, id string, data any) error {
	path, err := s.documentPath(collection, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(path, data)
}

// Load decodes a document into data
func (s *Store) Load(collection, id string, data any) error {
	path, err := s.documentPath(collection, id)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readJSON(path, data)
}

// Delete removes a document
func (s *Store) Delete(collection, id string) error {
	path, err := s.documentPath(collection, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// List returns the sorted document IDs in a collection
func (s *Store) List(collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listJSON(filepath.Join(s.basePath, collection))
}

// Exists reports whether a document exists
func (s *Store) Exists(collection, id string) bool {
	path, err := s.documentPath(collection, id)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err = os.Stat(path)
	return err == nil
}

// Append adds an entry document under <collection>/<id>/
func (s *Store) Append(collection, id, entry string, data any) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := validID(entry); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(s.basePath, collection, id, entry+".json"), data)
}

// LoadEntry decodes one entry document under <collection>/<id>/
func (s *Store) LoadEntry(collection, id, entry string, data any) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := validID(entry); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readJSON(filepath.Join(s.basePath, collection, id, entry+".json"), data)
}

// Entries returns the sorted entry names under <collection>/<id>/
func (s *Store) Entries(collection, id string) ([]string, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return listJSON(filepath.Join(s.basePath, collection, id))
}

// RemoveEntries deletes every entry under <collection>/<id>/
func (s *Store) RemoveEntries(collection, id string) error {
	if err := validID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(s.basePath, collection, id)); err != nil {
		return fmt.Errorf("remove entries: %w", err)
	}
	return nil
}

func (s *Store) documentPath(collection, id string) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, collection, id+".json"), nil
}

func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func writeJSON(path string, data any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create collection directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode json: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func readJSON(path string, data any) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if id, ok := strings.CutSuffix(name, ".json"); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
