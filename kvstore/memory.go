package kvstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Tests use its failure hooks to
// simulate an unavailable disk.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	writes map[string]int
	closed bool

	// SetErr, when non-nil, is returned by every Set without writing.
	SetErr error

	// GetErr, when non-nil, is returned by every Get.
	GetErr error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	if s.GetErr != nil {
		return nil, false, s.GetErr
	}
	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.SetErr != nil {
		return s.SetErr
	}
	s.values[key] = append([]byte(nil), value...)
	s.writes[key]++
	return nil
}

// Update implements Updater.
func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.GetErr != nil {
		return s.GetErr
	}
	current, found := s.values[key]
	next, err := fn(append([]byte(nil), current...), found)
	if err != nil {
		return err
	}
	if s.SetErr != nil {
		return s.SetErr
	}
	s.values[key] = append([]byte(nil), next...)
	s.writes[key]++
	return nil
}

// SetFailure sets or clears the error returned by Set.
func (s *MemoryStore) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetErr = err
}

// Writes returns how many successful writes key has received.
func (s *MemoryStore) Writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
