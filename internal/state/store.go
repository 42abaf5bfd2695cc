package state

import (
	"context"
	"errors"
	"strconv"
	"sync"
)

// ErrNotFound is returned by Get when no value exists under the key.
var ErrNotFound = errors.New("state: key not found")

// Store is the durable key-value storage behind the likes service.
// Keys are opaque strings; callers own their namespacing.
// IncrBy must be atomic per key so concurrent count adjustments for the
// same post never lose updates.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// IncrBy adjusts the integer stored under key by delta and returns the
	// new value. A missing or non-integer value counts as 0.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Malformed or absent values count as zero.
	cur, _ := strconv.ParseInt(s.data[key], 10, 64)
	cur += delta
	s.data[key] = strconv.FormatInt(cur, 10)
	return cur, nil
}
