package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/sharecode"
)

// LibraryStore persists saved team sets.
type LibraryStore interface {
	SaveLibrary(ctx context.Context, sets []domain.SavedTeamSet) error
	LoadLibrary(ctx context.Context) ([]domain.SavedTeamSet, bool, error)
	DiscardLibrary(ctx context.Context) error
}

// LibraryService manages named snapshots of team sets and their share codes.
type LibraryService struct {
	mu     sync.Mutex
	store  LibraryStore
	roster *RosterService
	lookup CharacterLookup
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewLibraryService(store LibraryStore, roster *RosterService, lookup CharacterLookup, log logrus.FieldLogger) *LibraryService {
	if log == nil {
		log = logrus.New()
	}
	return &LibraryService{store: store, roster: roster, lookup: lookup, log: log, now: time.Now}
}

// LibraryResult carries the library after a call plus an optional warning.
type LibraryResult struct {
	Sets    []domain.SavedTeamSet `json:"sets"`
	Warning string                `json:"warning,omitempty"`
}

// ShareResult is a share code in bare and chat-ready form.
type ShareResult struct {
	Code   string `json:"code"`
	Fenced string `json:"fenced"`
}

// ImportResult reports what an import stored.
type ImportResult struct {
	Saved   domain.SavedTeamSet `json:"saved"`
	Unknown []string            `json:"unknown,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// List returns the saved sets sorted by name.
func (s *LibraryService) List(ctx context.Context) (LibraryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, warning, err := s.load(ctx)
	if err != nil {
		return LibraryResult{}, err
	}
	return LibraryResult{Sets: sorted(sets), Warning: warning}, nil
}

// Save snapshots a team set under name. An existing entry is replaced only
// when overwrite is set.
func (s *LibraryService) Save(ctx context.Context, name, setID string, overwrite bool) (LibraryResult, error) {
	name, err := cleanName(name)
	if err != nil {
		return LibraryResult{}, err
	}
	snap, err := s.roster.Snapshot(setID)
	if err != nil {
		return LibraryResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sets, warning, err := s.load(ctx)
	if err != nil {
		return LibraryResult{}, err
	}
	entry := domain.SavedTeamSet{Name: name, Squads: snap.Grid(), SavedAt: s.now().UTC()}
	if i := indexOf(sets, name); i >= 0 {
		if !overwrite {
			return LibraryResult{}, fmt.Errorf("%w: %s", domain.ErrSavedSetExists, name)
		}
		sets[i] = entry
	} else {
		sets = append(sets, entry)
	}
	return s.persist(ctx, sets, warning), nil
}

// Load copies a saved set into a team set of the roster.
func (s *LibraryService) Load(ctx context.Context, name, targetSetID string) (Result, error) {
	s.mu.Lock()
	sets, _, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	i := indexOf(sets, name)
	if i < 0 {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrSavedSetNotFound, name)
	}
	return s.roster.ReplaceTeamSet(ctx, targetSetID, sets[i].Squads, sets[i].Name)
}

func (s *LibraryService) Rename(ctx context.Context, oldName, newName string) (LibraryResult, error) {
	newName, err := cleanName(newName)
	if err != nil {
		return LibraryResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sets, warning, err := s.load(ctx)
	if err != nil {
		return LibraryResult{}, err
	}
	i := indexOf(sets, oldName)
	if i < 0 {
		return LibraryResult{}, fmt.Errorf("%w: %s", domain.ErrSavedSetNotFound, oldName)
	}
	if j := indexOf(sets, newName); j >= 0 && j != i {
		return LibraryResult{}, fmt.Errorf("%w: %s", domain.ErrSavedSetExists, newName)
	}
	sets[i].Name = newName
	return s.persist(ctx, sets, warning), nil
}

func (s *LibraryService) Delete(ctx context.Context, name string) (LibraryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, warning, err := s.load(ctx)
	if err != nil {
		return LibraryResult{}, err
	}
	i := indexOf(sets, name)
	if i < 0 {
		return LibraryResult{}, fmt.Errorf("%w: %s", domain.ErrSavedSetNotFound, name)
	}
	sets = append(sets[:i], sets[i+1:]...)
	return s.persist(ctx, sets, warning), nil
}

// ShareCode encodes a saved set.
func (s *LibraryService) ShareCode(ctx context.Context, name string) (ShareResult, error) {
	s.mu.Lock()
	sets, _, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return ShareResult{}, err
	}

	i := indexOf(sets, name)
	if i < 0 {
		return ShareResult{}, fmt.Errorf("%w: %s", domain.ErrSavedSetNotFound, name)
	}
	return share(sets[i].Name, sets[i].Squads), nil
}

// ShareTeamSet encodes a live team set of the roster.
func (s *LibraryService) ShareTeamSet(setID string) (ShareResult, error) {
	snap, err := s.roster.Snapshot(setID)
	if err != nil {
		return ShareResult{}, err
	}
	return share(snap.DisplayName(), snap.Grid()), nil
}

// Import decodes a share code into a new saved set. The name comes from the
// caller, then the code, then a timestamp. Ids missing from the catalog are
// dropped and reported. A taken name gets a numeric suffix.
func (s *LibraryService) Import(ctx context.Context, code, name string) (ImportResult, error) {
	decoded, err := sharecode.Decode(code)
	if err != nil {
		return ImportResult{}, err
	}

	unknown := s.dropUnknown(&decoded.Squads)

	name = strings.TrimSpace(name)
	if name == "" {
		name = decoded.Name
	}
	if name == "" {
		name = "Imported Set " + s.now().Format("2006-01-02 15:04")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sets, warning, err := s.load(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	name = uniqueName(sets, name)
	entry := domain.SavedTeamSet{Name: name, Squads: decoded.Squads, SavedAt: s.now().UTC()}
	res := s.persist(ctx, append(sets, entry), warning)

	if len(unknown) > 0 {
		s.log.WithField("ids", unknown).Warn("share code referenced unknown characters")
	}
	return ImportResult{Saved: entry, Unknown: unknown, Warning: res.Warning}, nil
}

// load reads the library. An unreadable library is discarded and reported as
// a warning rather than an error.
func (s *LibraryService) load(ctx context.Context) ([]domain.SavedTeamSet, string, error) {
	sets, _, err := s.store.LoadLibrary(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCorruptState) {
			return nil, "", fmt.Errorf("load library: %w", err)
		}
		s.log.WithError(err).Warn("discarding unreadable library")
		if derr := s.store.DiscardLibrary(ctx); derr != nil {
			s.log.WithError(derr).Error("failed to delete unreadable library")
		}
		return nil, warnCorrupt, nil
	}
	return sets, "", nil
}

// persist writes sets and returns them sorted. A failed write is a warning,
// appended to any warning the caller already has.
func (s *LibraryService) persist(ctx context.Context, sets []domain.SavedTeamSet, warning string) LibraryResult {
	res := LibraryResult{Sets: sorted(sets), Warning: warning}
	if err := s.store.SaveLibrary(ctx, sets); err != nil {
		saveWarning := warnSave
		if errors.Is(err, domain.ErrQuotaExceeded) {
			saveWarning = warnQuota
		}
		res.Warning = joinWarnings(res.Warning, saveWarning)
		s.log.WithError(err).Warn("failed to persist library")
	}
	return res
}

// dropUnknown clears ids the catalog does not know and returns them.
func (s *LibraryService) dropUnknown(grid *[domain.SquadsPerSet][domain.SlotsPerSquad]string) []string {
	if s.lookup == nil {
		return nil
	}
	var unknown []string
	for i := range grid {
		for j, id := range grid[i] {
			if id == "" {
				continue
			}
			if _, ok := s.lookup.ByID(id); !ok {
				unknown = append(unknown, id)
				grid[i][j] = ""
			}
		}
	}
	return unknown
}

func joinWarnings(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

func share(name string, grid [domain.SquadsPerSet][domain.SlotsPerSquad]string) ShareResult {
	code := sharecode.Encode(name, grid)
	return ShareResult{Code: code, Fenced: sharecode.Fenced(code)}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

func indexOf(sets []domain.SavedTeamSet, name string) int {
	for i := range sets {
		if sets[i].Name == name {
			return i
		}
	}
	return -1
}

func uniqueName(sets []domain.SavedTeamSet, name string) string {
	if indexOf(sets, name) < 0 {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if indexOf(sets, candidate) < 0 {
			return candidate
		}
	}
}

func sorted(sets []domain.SavedTeamSet) []domain.SavedTeamSet {
	out := append([]domain.SavedTeamSet{}, sets...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
