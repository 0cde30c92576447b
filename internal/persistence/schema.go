package persistence

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/dom/squad-roster/internal/domain"
)

// stateDoc is the version 2 document. Slices instead of the domain's fixed
// arrays let decoding see and repair wrong lengths.
type stateDoc struct {
	Version  json.RawMessage `json:"version"`
	TeamSets []teamSetDoc    `json:"teamSets"`
	Active   int             `json:"active"`
	Curated  []string        `json:"curated,omitempty"`
}

type teamSetDoc struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CustomName string     `json:"customName,omitempty"`
	Squads     []squadDoc `json:"squads"`
}

type squadDoc struct {
	Slots []domain.Slot `json:"slots"`
}

// legacyDoc covers both 1.x shapes: teamSets keyed by set id with row
// objects, and the unversioned list of {team, images} rows.
type legacyDoc struct {
	Version        json.RawMessage `json:"version"`
	TeamSets       json.RawMessage `json:"teamSets"`
	CurrentTeamSet json.RawMessage `json:"currentTeamSet"`
}

type legacyRow struct {
	Row   int          `json:"row"`
	Slots []legacySlot `json:"slots"`
}

type legacySlot struct {
	IsEmpty  bool   `json:"isEmpty"`
	ID       string `json:"id"`
	Src      string `json:"src"`
	Position *struct {
		Slot int `json:"slot"`
	} `json:"position"`
}

type legacyTeam struct {
	Team   string   `json:"team"`
	Images []string `json:"images"`
}

// decodeState parses any supported stored shape into a repaired AppState.
func decodeState(raw []byte) (*domain.AppState, error) {
	var head struct {
		Version json.RawMessage `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	major, err := majorVersion(head.Version)
	if err != nil {
		return nil, err
	}
	switch major {
	case domain.StateVersion:
		var doc stateDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
		return fromDoc(doc), nil
	case 0, 1:
		var doc legacyDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode legacy state: %w", err)
		}
		return migrateLegacy(doc)
	}
	return nil, fmt.Errorf("unsupported state version %s", string(head.Version))
}

// majorVersion reads 2, "2", "1.2" or a missing version (0).
func majorVersion(v json.RawMessage) (int, error) {
	if len(v) == 0 || string(v) == "null" {
		return 0, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			return 0, fmt.Errorf("unreadable state version %s", string(v))
		}
		return int(n), nil
	}
	major, _, _ := strings.Cut(s, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, fmt.Errorf("unreadable state version %q", s)
	}
	return n, nil
}

func toDoc(state *domain.AppState) stateDoc {
	doc := stateDoc{
		Version: json.RawMessage(strconv.Itoa(domain.StateVersion)),
		Active:  state.Active,
		Curated: state.Curated,
	}
	for _, set := range state.TeamSets {
		sd := teamSetDoc{ID: set.ID, Name: set.Name, CustomName: set.CustomName}
		for _, sq := range set.Squads {
			sd.Squads = append(sd.Squads, squadDoc{Slots: sq.Slots[:]})
		}
		doc.TeamSets = append(doc.TeamSets, sd)
	}
	return doc
}

func fromDoc(doc stateDoc) *domain.AppState {
	state := &domain.AppState{Version: domain.StateVersion, Active: doc.Active, Curated: doc.Curated}
	for _, sd := range doc.TeamSets {
		set := domain.TeamSet{ID: sd.ID, Name: sd.Name, CustomName: sd.CustomName}
		for i := 0; i < domain.SquadsPerSet && i < len(sd.Squads); i++ {
			set.Squads[i] = domain.FitSquad(sd.Squads[i].Slots)
		}
		state.TeamSets = append(state.TeamSets, set)
	}
	return repair(state)
}

func migrateLegacy(doc legacyDoc) (*domain.AppState, error) {
	state := &domain.AppState{Version: domain.StateVersion}

	var current string
	if len(doc.CurrentTeamSet) > 0 {
		var s string
		if err := json.Unmarshal(doc.CurrentTeamSet, &s); err != nil {
			var n int
			if err := json.Unmarshal(doc.CurrentTeamSet, &n); err == nil {
				s = strconv.Itoa(n)
			}
		}
		current = s
	}

	keyed := map[string][]legacyRow{}
	var listed [][]legacyTeam
	switch {
	case len(doc.TeamSets) == 0 || string(doc.TeamSets) == "null":
	case json.Unmarshal(doc.TeamSets, &keyed) == nil:
		ids := make([]string, 0, len(keyed))
		for id := range keyed {
			ids = append(ids, id)
		}
		sortSetIDs(ids)
		for _, id := range ids {
			state.TeamSets = append(state.TeamSets, migrateRows(id, keyed[id]))
		}
	case json.Unmarshal(doc.TeamSets, &listed) == nil:
		for i, teams := range listed {
			set := domain.TeamSet{ID: strconv.Itoa(i + 1)}
			for j := 0; j < domain.SquadsPerSet && j < len(teams); j++ {
				ids := make([]string, len(teams[j].Images))
				for k, src := range teams[j].Images {
					ids[k] = idFromSource(src)
				}
				set.Squads[j] = domain.FitSquadIDs(ids)
			}
			state.TeamSets = append(state.TeamSets, set)
		}
	default:
		return nil, fmt.Errorf("legacy teamSets has an unknown shape")
	}

	if idx, ok := state.SetIndex(current); ok {
		state.Active = idx
	}
	return repair(state), nil
}

func migrateRows(id string, rows []legacyRow) domain.TeamSet {
	set := domain.TeamSet{ID: id}
	for i, row := range rows {
		r := row.Row
		if r < 0 || r >= domain.SquadsPerSet {
			r = i
		}
		if r >= domain.SquadsPerSet {
			continue
		}

		ids := make([]string, domain.SlotsPerSquad)
		next := 0
		for _, slot := range row.Slots {
			pos := next
			if slot.Position != nil {
				pos = slot.Position.Slot
			}
			next = pos + 1
			if pos < 0 || pos >= domain.SlotsPerSquad || slot.IsEmpty {
				continue
			}
			charID := slot.ID
			if charID == "" {
				charID = idFromSource(slot.Src)
			}
			ids[pos] = charID
		}
		set.Squads[r] = domain.FitSquadIDs(ids)
	}
	return set
}

// idFromSource extracts the character id from a portrait URL or file name.
func idFromSource(src string) string {
	if src == "" {
		return ""
	}
	base := path.Base(src)
	id, _, _ := strings.Cut(base, "_")
	return id
}

func sortSetIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
}

// repair gives every set a unique id, then fills in missing stock sets and
// names, clamps the active index and drops blank or repeated curated ids.
func repair(state *domain.AppState) *domain.AppState {
	state.Version = domain.StateVersion

	taken := make(map[string]bool, len(state.TeamSets))
	var blank []int
	for i := range state.TeamSets {
		id := state.TeamSets[i].ID
		if id == "" || taken[id] {
			blank = append(blank, i)
			continue
		}
		taken[id] = true
	}
	for _, i := range blank {
		n := i + 1
		for taken[strconv.Itoa(n)] {
			n++
		}
		state.TeamSets[i].ID = strconv.Itoa(n)
		taken[state.TeamSets[i].ID] = true
	}

	for _, d := range domain.DefaultTeamSets {
		idx, ok := state.SetIndex(d.ID)
		if !ok {
			state.TeamSets = append(state.TeamSets, domain.TeamSet{ID: d.ID, Name: d.Name})
			continue
		}
		if state.TeamSets[idx].Name == "" {
			state.TeamSets[idx].Name = d.Name
		}
	}
	for i := range state.TeamSets {
		if state.TeamSets[i].Name == "" {
			state.TeamSets[i].Name = "Team Set " + state.TeamSets[i].ID
		}
	}
	if state.Active < 0 || state.Active >= len(state.TeamSets) {
		state.Active = 0
	}

	var curated []string
	seen := make(map[string]bool, len(state.Curated))
	for _, id := range state.Curated {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		curated = append(curated, id)
	}
	state.Curated = curated
	return state
}
