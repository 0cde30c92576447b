// Package memory is an in-process KeyValueRepository with an optional per-value
// byte quota, mirroring how browser local storage rejects oversized writes.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dom/squad-roster/internal/repository"
)

type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	quota  int
	writes int
}

// New returns an empty store. A quota of zero or less disables the limit.
func New(quota int) *Store {
	return &Store{data: make(map[string][]byte), quota: quota}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.quota > 0 && len(value) > s.quota {
		return fmt.Errorf("%w: %d bytes for %s, limit %d", repository.ErrQuotaExceeded, len(value), key, s.quota)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Writes counts successful Put calls. Tests use it to check write-through.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
