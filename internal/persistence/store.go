// Package persistence saves and restores the roster state and the saved
// team-set library through a KeyValueRepository.
//
// Payloads are plain JSON when they fit the quota. Larger payloads are stored
// as a zstd envelope; anything still too large is rejected with
// domain.ErrQuotaExceeded and nothing is written.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/repository"
)

// libraryVersion is the schema version of the saved-sets document.
const libraryVersion = 1

type libraryDoc struct {
	Version int                   `json:"version"`
	Sets    []domain.SavedTeamSet `json:"sets"`
}

type Store struct {
	repo  repository.KeyValueRepository
	quota int
}

// NewStore returns a store writing through repo. A quota of zero or less
// disables the size check.
func NewStore(repo repository.KeyValueRepository, quota int) *Store {
	return &Store{repo: repo, quota: quota}
}

// Save writes state under the state key.
func (s *Store) Save(ctx context.Context, state *domain.AppState) error {
	raw, err := json.Marshal(toDoc(state))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.put(ctx, repository.KeyState, raw)
}

// Load reads the stored state. found is false when nothing was ever saved.
// Unreadable payloads return domain.ErrCorruptState.
func (s *Store) Load(ctx context.Context) (state *domain.AppState, found bool, err error) {
	raw, found, err := s.get(ctx, repository.KeyState)
	if err != nil || !found {
		return nil, found, err
	}
	state, err = decodeState(raw)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}
	return state, true, nil
}

// Discard deletes the stored state.
func (s *Store) Discard(ctx context.Context) error {
	return s.repo.Delete(ctx, repository.KeyState)
}

// SaveLibrary writes the saved team-set library.
func (s *Store) SaveLibrary(ctx context.Context, sets []domain.SavedTeamSet) error {
	if sets == nil {
		sets = []domain.SavedTeamSet{}
	}
	raw, err := json.Marshal(libraryDoc{Version: libraryVersion, Sets: sets})
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	return s.put(ctx, repository.KeySavedSets, raw)
}

// LoadLibrary reads the saved team-set library.
func (s *Store) LoadLibrary(ctx context.Context) ([]domain.SavedTeamSet, bool, error) {
	raw, found, err := s.get(ctx, repository.KeySavedSets)
	if err != nil || !found {
		return nil, found, err
	}
	var doc libraryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, true, fmt.Errorf("%w: decode library: %v", domain.ErrCorruptState, err)
	}
	if doc.Version != libraryVersion {
		return nil, true, fmt.Errorf("%w: unsupported library version %d", domain.ErrCorruptState, doc.Version)
	}
	return doc.Sets, true, nil
}

// DiscardLibrary deletes the stored library.
func (s *Store) DiscardLibrary(ctx context.Context) error {
	return s.repo.Delete(ctx, repository.KeySavedSets)
}

func (s *Store) put(ctx context.Context, key string, raw []byte) error {
	payload := raw
	if s.quota > 0 && len(raw) > s.quota {
		env, err := compress(raw)
		if err != nil {
			return err
		}
		if len(env) > s.quota {
			return fmt.Errorf("%w: %s needs %d bytes compressed, limit %d",
				domain.ErrQuotaExceeded, key, len(env), s.quota)
		}
		payload = env
	}

	if err := s.repo.Put(ctx, key, payload); err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !isEnvelope(data) {
		return data, true, nil
	}
	raw, err := decompress(data)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %s: %v", domain.ErrCorruptState, key, err)
	}
	return raw, true, nil
}
