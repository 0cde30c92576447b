package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written or was deleted.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Put when the value is larger than the backend allows.
	ErrQuotaExceeded = errors.New("value exceeds storage quota")
)

// KeyValueRepository is the persistent slot behind the roster's storage keys.
// Values are opaque blobs; encoding is the caller's concern.
type KeyValueRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Storage keys
const (
	KeyState     = "squadRosterState"
	KeySavedSets = "squadRosterSavedSets"
)
