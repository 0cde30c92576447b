// Package bolt stores roster blobs in a single-file BoltDB database. It is the
// default backend for the local server.
package bolt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/dom/squad-roster/internal/repository"
)

const storageBucket = "roster"

type Store struct {
	db    *bbolt.DB
	quota int
}

// Open opens (or creates) the database at path. A quota of zero or less
// disables the per-value limit.
func Open(path string, quota int) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db, quota: quota}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(storageBucket))
		if bucket == nil {
			return fmt.Errorf("storage bucket is missing")
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return repository.ErrNotFound
		}
		// v is only valid inside the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}
	if s.quota > 0 && len(value) > s.quota {
		return fmt.Errorf("%w: %d bytes for %s, limit %d", repository.ErrQuotaExceeded, len(value), key, s.quota)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(storageBucket))
		if bucket == nil {
			return fmt.Errorf("storage bucket is missing")
		}
		return bucket.Put([]byte(key), value)
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(storageBucket))
		if bucket == nil {
			return fmt.Errorf("storage bucket is missing")
		}
		return bucket.Delete([]byte(key))
	})
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(storageBucket)); err != nil {
			return fmt.Errorf("create storage bucket: %w", err)
		}
		return nil
	})
}
