package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// compressedPrefix marks a compressed envelope written by the persistence layer.
var compressedPrefix = []byte("z1:")

type storageRepository struct {
	db    *gorm.DB
	quota int
}

// NewStorageRepository returns a KeyValueRepository over storage_entries. A
// quota of zero or less disables the per-value limit.
func NewStorageRepository(db *gorm.DB, quota int) *storageRepository {
	return &storageRepository{db: db, quota: quota}
}

func (r *storageRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var entry domain.StorageEntry
	err := r.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return entry.Value, nil
}

func (r *storageRepository) Put(ctx context.Context, key string, value []byte) error {
	if r.quota > 0 && len(value) > r.quota {
		return fmt.Errorf("%w: %d bytes for %s, limit %d", repository.ErrQuotaExceeded, len(value), key, r.quota)
	}

	encoding := "json"
	if bytes.HasPrefix(value, compressedPrefix) {
		encoding = "zstd"
	}
	entry := &domain.StorageEntry{
		Key:   key,
		Value: value,
		Meta: datatypes.JSONMap{
			"encoding": encoding,
			"bytes":    len(value),
		},
		UpdatedAt: time.Now(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(entry).Error
}

func (r *storageRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&domain.StorageEntry{}, "key = ?", key).Error
}

// Meta returns the metadata recorded with key.
func (r *storageRepository) Meta(ctx context.Context, key string) (datatypes.JSONMap, error) {
	var entry domain.StorageEntry
	err := r.db.WithContext(ctx).Select("key", "meta").First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return entry.Meta, nil
}
