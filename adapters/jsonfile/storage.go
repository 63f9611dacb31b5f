package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store persists rule metadata to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[string]map[string]map[string]any
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[string]map[string]map[string]any{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &s.data)
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) PutMeta(_ context.Context, ruleID, key string, value map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[ruleID] == nil {
		s.data[ruleID] = map[string]map[string]any{}
	}
	s.data[ruleID][key] = value
	return s.persist()
}

func (s *Store) GetMeta(_ context.Context, ruleID, key string) (map[string]any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[ruleID][key]
	if !ok {
		return nil, false, nil
	}
	return entry, true, nil
}

func (s *Store) DeleteMeta(_ context.Context, ruleID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.data[ruleID]
	if !ok {
		return nil
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(s.data, ruleID)
	}
	return s.persist()
}

func (s *Store) ListRules(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out, nil
}
