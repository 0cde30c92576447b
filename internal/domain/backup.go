package domain

import "time"

const (
	// BackupType tags a saved team set backup document.
	BackupType = "squad-roster-saved-sets"
	// BackupVersion is written on export. Restore accepts any 1.x document.
	BackupVersion = "1.1"
)

// LibraryBackup is the portable file form of the whole saved set library.
type LibraryBackup struct {
	Version    string         `json:"version"`
	Type       string         `json:"type"`
	ExportedAt time.Time      `json:"timestamp"`
	SetCount   int            `json:"setCount"`
	Sets       []SavedTeamSet `json:"sets"`
}

// RestoreMode decides what happens to saved sets already in the library.
type RestoreMode string

const (
	// RestoreMerge adds imported sets and overwrites same-named ones.
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace drops the current library first.
	RestoreReplace RestoreMode = "replace"
	// RestoreSkip keeps existing sets and imports only new names.
	RestoreSkip RestoreMode = "skip"
)

// ParseRestoreMode reads a mode name. Empty selects RestoreMerge.
func ParseRestoreMode(s string) (RestoreMode, bool) {
	switch RestoreMode(s) {
	case "", RestoreMerge:
		return RestoreMerge, true
	case RestoreReplace, RestoreSkip:
		return RestoreMode(s), true
	}
	return "", false
}
