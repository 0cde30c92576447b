package domain

import (
	"time"

	"gorm.io/datatypes"
)

// StorageEntry is one persisted blob in the SQL backend.
type StorageEntry struct {
	Key       string            `json:"key" gorm:"primaryKey"`       // e.g., "squadRosterState"
	Value     []byte            `json:"-" gorm:"type:bytea;not null"` // encoded payload
	Meta      datatypes.JSONMap `json:"meta" gorm:"type:jsonb"`       // {"encoding": "zstd", "bytes": 1234}
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (StorageEntry) TableName() string {
	return "storage_entries"
}
