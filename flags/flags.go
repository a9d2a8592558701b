// Package flags provides the feature flag store the deployment's activation
// phase writes to. Flags are an explicit store passed by reference into
// actions, never process environment mutation, so tests can substitute an
// in-memory implementation.
package flags

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is the feature flag interface actions depend on.
type Store interface {
	Get(name string) (bool, error)
	Set(name string, value bool) error
	Enable(name string) error
	Names() ([]string, error)
}

// FileStore persists flags as a YAML map. Writes are last-writer-wins; there
// is no transactional rollback beyond the deployment's compensation pass.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Get(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.load()
	if err != nil {
		return false, err
	}
	return flags[name], nil
}

func (s *FileStore) Set(name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.load()
	if err != nil {
		return err
	}
	flags[name] = value

	if err := s.save(flags); err != nil {
		return err
	}

	slog.Info("Feature flag updated", "flag", name, "value", value)
	return nil
}

func (s *FileStore) Enable(name string) error {
	return s.Set(name, true)
}

func (s *FileStore) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) load() (map[string]bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to read flags file: %w", err)
	}

	flags := map[string]bool{}
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("failed to parse flags file: %w", err)
	}
	return flags, nil
}

func (s *FileStore) save(flags map[string]bool) error {
	data, err := yaml.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to serialize flags: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write flags file: %w", err)
	}
	return nil
}

// MemoryStore is the in-memory Store used by tests and dry runs.
type MemoryStore struct {
	mu    sync.Mutex
	flags map[string]bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: map[string]bool{}}
}

func (s *MemoryStore) Get(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[name], nil
}

func (s *MemoryStore) Set(name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = value
	return nil
}

func (s *MemoryStore) Enable(name string) error {
	return s.Set(name, true)
}

func (s *MemoryStore) Names() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.flags))
	for name := range s.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
