package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/lineup"
)

// StateStore persists the application state.
type StateStore interface {
	Save(ctx context.Context, state *domain.AppState) error
	Load(ctx context.Context) (*domain.AppState, bool, error)
	Discard(ctx context.Context) error
}

// CharacterLookup resolves catalog ids.
type CharacterLookup interface {
	ByID(id string) (*domain.CharacterRecord, bool)
}

// Result is returned by every roster call. Warning is set when the change was
// applied in memory but could not be persisted.
type Result struct {
	State   *domain.AppState `json:"state"`
	Warning string           `json:"warning,omitempty"`
}

const (
	warnQuota   = "Storage is full. Changes are kept for this session only."
	warnSave    = "Could not save changes. They are kept for this session only."
	warnCorrupt = "Saved data could not be read and was reset."
)

// RosterService owns the single AppState. Calls are serialised; each one sees
// the result of the previous one.
type RosterService struct {
	mu        sync.Mutex
	state     *domain.AppState
	store     StateStore
	lookup    CharacterLookup
	scorer    domain.Scorer
	threshold float64
	log       logrus.FieldLogger

	listenersMu sync.RWMutex
	listeners   []func(*domain.AppState)
}

type RosterOptions struct {
	SwapThreshold float64
	Scorer        domain.Scorer
}

func NewRosterService(store StateStore, lookup CharacterLookup, opts RosterOptions, log logrus.FieldLogger) *RosterService {
	if log == nil {
		log = logrus.New()
	}
	s := &RosterService{
		state:     domain.NewAppState(),
		store:     store,
		lookup:    lookup,
		scorer:    opts.Scorer,
		threshold: opts.SwapThreshold,
		log:       log,
	}
	s.rescore(s.state)
	return s
}

// Init restores persisted state. Absent state yields defaults; unreadable
// state is deleted and replaced by defaults with a warning.
func (s *RosterService) Init(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, found, err := s.store.Load(ctx)
	var warning string
	switch {
	case err != nil && errors.Is(err, domain.ErrCorruptState):
		s.log.WithError(err).Warn("discarding unreadable saved state")
		if derr := s.store.Discard(ctx); derr != nil {
			s.log.WithError(derr).Error("failed to delete unreadable state")
		}
		state = domain.NewAppState()
		warning = warnCorrupt
	case err != nil:
		return Result{}, fmt.Errorf("load state: %w", err)
	case !found:
		s.log.Info("no saved state, starting with defaults")
		state = domain.NewAppState()
	}

	s.rescore(state)
	s.state = state
	return Result{State: state.Clone(), Warning: warning}, nil
}

// State returns a copy of the current state.
func (s *RosterService) State() *domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// OnChange registers fn to receive a copy of the state after every committed
// change. fn runs outside the service lock.
func (s *RosterService) OnChange(fn func(*domain.AppState)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *RosterService) SwapThreshold() float64 {
	if s.threshold <= 0 {
		return lineup.DefaultSwapThreshold
	}
	return s.threshold
}

// Assign places a catalog character at ref in the given team set ("" selects
// the active set).
func (s *RosterService) Assign(ctx context.Context, setID string, ref domain.SlotRef, characterID string) (Result, error) {
	if err := s.checkCharacter(characterID); err != nil {
		return Result{}, err
	}
	return s.mutateSet(ctx, setID, func(m *lineup.Model) error {
		return m.Assign(ref, characterID)
	})
}

// MoveOrSwap completes a drag between two slots of one team set.
func (s *RosterService) MoveOrSwap(ctx context.Context, setID string, src, dst domain.SlotRef, overlap float64) (Result, lineup.Outcome, error) {
	var out lineup.Outcome
	res, err := s.mutateSet(ctx, setID, func(m *lineup.Model) error {
		var err error
		out, err = m.MoveOrSwap(src, dst, overlap)
		if err == nil && out.Kind == lineup.OutcomeNoop {
			return errNoChange
		}
		return err
	})
	if out.Evicted != "" {
		s.log.WithField("character", out.Evicted).Debug("insertion evicted a character")
	}
	return res, out, err
}

func (s *RosterService) Remove(ctx context.Context, setID string, ref domain.SlotRef) (Result, error) {
	return s.mutateSet(ctx, setID, func(m *lineup.Model) error {
		return m.Remove(ref)
	})
}

func (s *RosterService) ClearSquad(ctx context.Context, setID string, squad int) (Result, error) {
	return s.mutateSet(ctx, setID, func(m *lineup.Model) error {
		return m.Clear(squad)
	})
}

// Toggle adds a character to the first empty slot or removes every
// occurrence of it. added reports which happened.
func (s *RosterService) Toggle(ctx context.Context, setID, characterID string) (res Result, added bool, err error) {
	if err := s.checkCharacter(characterID); err != nil {
		return Result{}, false, err
	}
	res, err = s.mutateSet(ctx, setID, func(m *lineup.Model) error {
		var err error
		added, err = m.Toggle(characterID)
		return err
	})
	return res, added, err
}

// Rename sets a team set's custom name. An empty name restores the stock name.
func (s *RosterService) Rename(ctx context.Context, setID, name string) (Result, error) {
	return s.mutate(ctx, func(state *domain.AppState) error {
		idx, err := s.resolve(state, setID)
		if err != nil {
			return err
		}
		state.TeamSets[idx].CustomName = strings.TrimSpace(name)
		return nil
	})
}

// Activate selects the team set shown by default.
func (s *RosterService) Activate(ctx context.Context, setID string) (Result, error) {
	return s.mutate(ctx, func(state *domain.AppState) error {
		idx, ok := state.SetIndex(setID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrTeamSetNotFound, setID)
		}
		state.Active = idx
		return nil
	})
}

// Reset empties one team set, or restores the whole default state when setID
// is empty.
func (s *RosterService) Reset(ctx context.Context, setID string) (Result, error) {
	return s.mutate(ctx, func(state *domain.AppState) error {
		if setID == "" {
			*state = *domain.NewAppState()
			return nil
		}
		idx, ok := state.SetIndex(setID)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrTeamSetNotFound, setID)
		}
		state.TeamSets[idx].Squads = [domain.SquadsPerSet]domain.Squad{}
		state.TeamSets[idx].CustomName = ""
		return nil
	})
}

// ReplaceTeamSet overwrites every slot of a team set. A non-empty name becomes
// the set's custom name.
func (s *RosterService) ReplaceTeamSet(ctx context.Context, setID string, grid [domain.SquadsPerSet][domain.SlotsPerSquad]string, name string) (Result, error) {
	return s.mutate(ctx, func(state *domain.AppState) error {
		idx, err := s.resolve(state, setID)
		if err != nil {
			return err
		}
		for i := range grid {
			state.TeamSets[idx].Squads[i] = domain.FitSquadIDs(grid[i][:])
		}
		if name = strings.TrimSpace(name); name != "" {
			state.TeamSets[idx].CustomName = name
		}
		return nil
	})
}

// Curate adds catalog characters to the curated subset. Ids already present
// are skipped; an unknown id rejects the whole call.
func (s *RosterService) Curate(ctx context.Context, ids []string) (res Result, added []string, err error) {
	for _, id := range ids {
		if err := s.checkCharacter(id); err != nil {
			return Result{}, nil, err
		}
	}
	res, err = s.mutate(ctx, func(state *domain.AppState) error {
		for _, id := range ids {
			if state.IsCurated(id) {
				continue
			}
			state.Curated = append(state.Curated, id)
			added = append(added, id)
		}
		if len(added) == 0 {
			return errNoChange
		}
		return nil
	})
	return res, added, err
}

// Uncurate removes ids from the curated subset. Ids not in it are ignored.
func (s *RosterService) Uncurate(ctx context.Context, ids []string) (Result, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return s.mutate(ctx, func(state *domain.AppState) error {
		var kept []string
		for _, id := range state.Curated {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) == len(state.Curated) {
			return errNoChange
		}
		state.Curated = kept
		return nil
	})
}

func (s *RosterService) ClearCurated(ctx context.Context) (Result, error) {
	return s.mutate(ctx, func(state *domain.AppState) error {
		if len(state.Curated) == 0 {
			return errNoChange
		}
		state.Curated = nil
		return nil
	})
}

// Snapshot returns a copy of one team set ("" selects the active set).
func (s *RosterService) Snapshot(setID string) (domain.TeamSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.resolve(s.state, setID)
	if err != nil {
		return domain.TeamSet{}, err
	}
	return s.state.TeamSets[idx], nil
}

var errNoChange = errors.New("no change")

func (s *RosterService) mutateSet(ctx context.Context, setID string, fn func(m *lineup.Model) error) (Result, error) {
	return s.mutate(ctx, func(state *domain.AppState) error {
		idx, err := s.resolve(state, setID)
		if err != nil {
			return err
		}
		m := lineup.New(&state.TeamSets[idx], lineup.Options{SwapThreshold: s.threshold, Scorer: s.scorer})
		if err := fn(m); err != nil {
			return err
		}
		state.TeamSets[idx] = m.Snapshot()
		return nil
	})
}

// mutate applies fn to a copy of the state, commits it, writes it through to
// the store and notifies listeners.
func (s *RosterService) mutate(ctx context.Context, fn func(state *domain.AppState) error) (Result, error) {
	s.mu.Lock()
	next := s.state.Clone()
	if err := fn(next); err != nil {
		current := s.state.Clone()
		s.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return Result{State: current}, nil
		}
		return Result{}, err
	}
	s.rescore(next)
	s.state = next

	var warning string
	if err := s.store.Save(ctx, next); err != nil {
		warning = warnSave
		if errors.Is(err, domain.ErrQuotaExceeded) {
			warning = warnQuota
		}
		s.log.WithError(err).Warn("failed to persist state")
	}
	out := next.Clone()
	s.mu.Unlock()

	s.notify(out)
	return Result{State: out, Warning: warning}, nil
}

func (s *RosterService) notify(state *domain.AppState) {
	s.listenersMu.RLock()
	listeners := append([]func(*domain.AppState){}, s.listeners...)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(state.Clone())
	}
}

func (s *RosterService) resolve(state *domain.AppState, setID string) (int, error) {
	if setID == "" {
		if state.ActiveSet() == nil {
			return 0, fmt.Errorf("%w: no active set", domain.ErrTeamSetNotFound)
		}
		return state.Active, nil
	}
	idx, ok := state.SetIndex(setID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrTeamSetNotFound, setID)
	}
	return idx, nil
}

func (s *RosterService) checkCharacter(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", domain.ErrCharacterNotFound)
	}
	if s.lookup == nil {
		return nil
	}
	if _, ok := s.lookup.ByID(id); !ok {
		return fmt.Errorf("%w: %s", domain.ErrCharacterNotFound, id)
	}
	return nil
}

func (s *RosterService) rescore(state *domain.AppState) {
	for i := range state.TeamSets {
		state.TeamSets[i].Rescore(s.scorer)
	}
}
