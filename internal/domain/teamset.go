package domain

import "time"

const (
	// SquadsPerSet is the number of squads in every team set.
	SquadsPerSet = 5
	// SlotsPerSquad is the number of slots in every squad.
	SlotsPerSquad = 5
)

// Slot is a single placement target. An empty CharacterID means the slot is Empty.
type Slot struct {
	CharacterID string `json:"characterId,omitempty"`
}

// IsEmpty reports whether the slot holds no character.
func (s Slot) IsEmpty() bool {
	return s.CharacterID == ""
}

// Squad is one row of a team set. The fixed-size array keeps the slot count
// at exactly SlotsPerSquad.
type Squad struct {
	Slots [SlotsPerSquad]Slot `json:"slots"`
	Score float64             `json:"score"`
}

// CharacterIDs returns the occupied ids in slot order.
func (s *Squad) CharacterIDs() []string {
	ids := make([]string, 0, SlotsPerSquad)
	for _, slot := range s.Slots {
		if !slot.IsEmpty() {
			ids = append(ids, slot.CharacterID)
		}
	}
	return ids
}

// IsFull reports whether no slot is empty.
func (s *Squad) IsFull() bool {
	for _, slot := range s.Slots {
		if slot.IsEmpty() {
			return false
		}
	}
	return true
}

// FitSquad builds a squad from a variable-length slot list: trailing excess is
// truncated and missing slots are padded with Empty, in index order.
func FitSquad(slots []Slot) Squad {
	var sq Squad
	for i := 0; i < SlotsPerSquad && i < len(slots); i++ {
		sq.Slots[i] = slots[i]
	}
	return sq
}

// FitSquadIDs is FitSquad over raw character ids ("" = Empty).
func FitSquadIDs(ids []string) Squad {
	slots := make([]Slot, len(ids))
	for i, id := range ids {
		slots[i] = Slot{CharacterID: id}
	}
	return FitSquad(slots)
}

// SlotRef addresses one slot inside a team set.
type SlotRef struct {
	Squad int `json:"squad"`
	Slot  int `json:"slot"`
}

// Valid reports whether the reference is inside the fixed grid.
func (r SlotRef) Valid() bool {
	return r.Squad >= 0 && r.Squad < SquadsPerSet && r.Slot >= 0 && r.Slot < SlotsPerSquad
}

// Scorer computes a squad's aggregate score. Scoring rules live outside the
// slot model; the model only invokes them.
type Scorer interface {
	ScoreSquad(squad *Squad) float64
}

// TeamSet is a named group of squads representing one configuration page.
type TeamSet struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	CustomName string              `json:"customName,omitempty"`
	Squads     [SquadsPerSet]Squad `json:"squads"`
}

// DisplayName returns the user's custom name when set, else the stock name.
func (t *TeamSet) DisplayName() string {
	if t.CustomName != "" {
		return t.CustomName
	}
	return t.Name
}

// Slot returns the slot at ref. The caller must validate ref first.
func (t *TeamSet) Slot(ref SlotRef) Slot {
	return t.Squads[ref.Squad].Slots[ref.Slot]
}

// Rescore recomputes every squad score. A nil scorer zeroes the scores.
func (t *TeamSet) Rescore(scorer Scorer) {
	for i := range t.Squads {
		if scorer == nil {
			t.Squads[i].Score = 0
			continue
		}
		t.Squads[i].Score = scorer.ScoreSquad(&t.Squads[i])
	}
}

// Grid returns the character ids of every slot, row-major ("" = Empty).
func (t *TeamSet) Grid() [SquadsPerSet][SlotsPerSquad]string {
	var grid [SquadsPerSet][SlotsPerSquad]string
	for i, sq := range t.Squads {
		for j, slot := range sq.Slots {
			grid[i][j] = slot.CharacterID
		}
	}
	return grid
}

// StateVersion is the current persisted schema version.
const StateVersion = 2

// AppState is the single top-level aggregate: every team set, the active
// selector and user customisations. Curated is the user's hand-picked
// character subset, in the order it was added, without duplicates.
type AppState struct {
	Version  int       `json:"version"`
	TeamSets []TeamSet `json:"teamSets"`
	Active   int       `json:"active"`
	Curated  []string  `json:"curated,omitempty"`
}

// DefaultTeamSets are the stock sets created at first load and on reset.
var DefaultTeamSets = []struct {
	ID   string
	Name string
}{
	{"1", "Defender"},
	{"2", "Attacker"},
}

// NewAppState returns the default state: stock team sets, all slots empty.
func NewAppState() *AppState {
	state := &AppState{Version: StateVersion}
	for _, d := range DefaultTeamSets {
		state.TeamSets = append(state.TeamSets, TeamSet{ID: d.ID, Name: d.Name})
	}
	return state
}

// ActiveSet returns the currently selected team set.
func (s *AppState) ActiveSet() *TeamSet {
	if s.Active < 0 || s.Active >= len(s.TeamSets) {
		return nil
	}
	return &s.TeamSets[s.Active]
}

// SetIndex resolves a team set by id.
func (s *AppState) SetIndex(id string) (int, bool) {
	for i := range s.TeamSets {
		if s.TeamSets[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy. TeamSets hold only arrays, so copying the slice
// is enough.
func (s *AppState) Clone() *AppState {
	out := &AppState{Version: s.Version, Active: s.Active}
	out.TeamSets = append([]TeamSet(nil), s.TeamSets...)
	if len(s.Curated) > 0 {
		out.Curated = append([]string(nil), s.Curated...)
	}
	return out
}

// IsCurated reports whether id is in the curated subset.
func (s *AppState) IsCurated(id string) bool {
	for _, c := range s.Curated {
		if c == id {
			return true
		}
	}
	return false
}

// SavedTeamSet is a named library snapshot of one team set.
type SavedTeamSet struct {
	Name    string                              `json:"name"`
	Squads  [SquadsPerSet][SlotsPerSquad]string `json:"squads"`
	SavedAt time.Time                           `json:"savedAt"`
}
