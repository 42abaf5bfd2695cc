package device

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// LocalStore is the client-side equivalent of browser local storage: a small
// JSON file of string keys. A missing or corrupt file degrades to an empty
// store. A Set that cannot reach disk is rolled back and reported, so a
// value the store returns later is always one that persisted.
type LocalStore struct {
	path string
	mu   sync.Mutex
	data map[string]string
}

// OpenLocalStore loads the store at path. It never fails: unreadable or
// corrupt content simply starts empty.
func OpenLocalStore(path string) *LocalStore {
	s := &LocalStore{
		path: path,
		data: make(map[string]string),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err == nil && data != nil {
		s.data = data
	}
	return s
}

func (s *LocalStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *LocalStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *LocalStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, raw, 0o600)
}
