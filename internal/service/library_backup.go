package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/domain"
)

// BackupResult is the library in its file form.
type BackupResult struct {
	Backup  domain.LibraryBackup
	Warning string
}

// RestoreResult reports what a restore did, by saved set name.
type RestoreResult struct {
	Sets     []domain.SavedTeamSet `json:"sets"`
	Added    []string              `json:"added,omitempty"`
	Replaced []string              `json:"replaced,omitempty"`
	Skipped  []string              `json:"skipped,omitempty"`
	Unknown  []string              `json:"unknown,omitempty"`
	Warning  string                `json:"warning,omitempty"`
}

// Backup returns every saved set as a versioned document.
func (s *LibraryService) Backup(ctx context.Context) (BackupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, warning, err := s.load(ctx)
	if err != nil {
		return BackupResult{}, err
	}
	sets = sorted(sets)
	return BackupResult{
		Backup: domain.LibraryBackup{
			Version:    domain.BackupVersion,
			Type:       domain.BackupType,
			ExportedAt: s.now().UTC(),
			SetCount:   len(sets),
			Sets:       sets,
		},
		Warning: warning,
	}, nil
}

// Restore reads a backup document into the library. Ids missing from the
// catalog are dropped and reported; within one document the last set of a
// name wins.
func (s *LibraryService) Restore(ctx context.Context, data []byte, mode domain.RestoreMode) (RestoreResult, error) {
	incoming, err := decodeBackup(data)
	if err != nil {
		return RestoreResult{}, err
	}

	var unknown []string
	for i := range incoming {
		unknown = append(unknown, s.dropUnknown(&incoming[i].Squads)...)
		if incoming[i].SavedAt.IsZero() {
			incoming[i].SavedAt = s.now().UTC()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, warning, err := s.load(ctx)
	if err != nil {
		return RestoreResult{}, err
	}
	if mode == domain.RestoreReplace {
		current = nil
	}

	var res RestoreResult
	for _, set := range incoming {
		i := indexOf(current, set.Name)
		switch {
		case i < 0:
			current = append(current, set)
			res.Added = append(res.Added, set.Name)
		case mode == domain.RestoreSkip:
			res.Skipped = append(res.Skipped, set.Name)
		default:
			current[i] = set
			res.Replaced = append(res.Replaced, set.Name)
		}
	}

	saved := s.persist(ctx, current, warning)
	res.Sets = saved.Sets
	res.Warning = saved.Warning
	res.Unknown = unknown

	s.log.WithFields(logrus.Fields{
		"mode":     mode,
		"added":    len(res.Added),
		"replaced": len(res.Replaced),
		"skipped":  len(res.Skipped),
	}).Info("restored saved team sets")
	return res, nil
}

// decodeBackup validates a backup document and returns its sets with names
// trimmed and duplicates collapsed.
func decodeBackup(data []byte) ([]domain.SavedTeamSet, error) {
	var doc domain.LibraryBackup
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBackup, err)
	}
	if doc.Type != domain.BackupType {
		return nil, fmt.Errorf("%w: unexpected type %q", domain.ErrInvalidBackup, doc.Type)
	}
	if major, _, _ := strings.Cut(doc.Version, "."); major != "1" {
		return nil, fmt.Errorf("%w: unsupported version %q", domain.ErrInvalidBackup, doc.Version)
	}

	var out []domain.SavedTeamSet
	for _, set := range doc.Sets {
		name, err := cleanName(set.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: saved set without a name", domain.ErrInvalidBackup)
		}
		set.Name = name
		if i := indexOf(out, name); i >= 0 {
			out[i] = set
			continue
		}
		out = append(out, set)
	}
	return out, nil
}
