// Package lineup implements the slot assignment rules for one team set.
//
// Every operation works on a copy of the set and commits only on success, so a
// failed call never leaves a partial mutation behind. Squad scores are
// recomputed through the configured domain.Scorer after each commit.
package lineup

import (
	"fmt"
	"math"

	"github.com/dom/squad-roster/internal/domain"
)

// DefaultSwapThreshold is the overlap ratio at or above which dropping onto an
// occupied slot swaps instead of inserting.
const DefaultSwapThreshold = 0.65

type Options struct {
	SwapThreshold float64
	Scorer        domain.Scorer
}

// OutcomeKind describes what a MoveOrSwap did.
type OutcomeKind string

const (
	OutcomeNoop   OutcomeKind = "noop"
	OutcomeMove   OutcomeKind = "move"
	OutcomeSwap   OutcomeKind = "swap"
	OutcomeInsert OutcomeKind = "insert"
)

type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	// Evicted is the character pushed out of a full squad by an insertion.
	Evicted string `json:"evicted,omitempty"`
}

// Model owns one team set.
type Model struct {
	set  domain.TeamSet
	opts Options
}

// New copies set into a model. A zero threshold selects DefaultSwapThreshold.
func New(set *domain.TeamSet, opts Options) *Model {
	if opts.SwapThreshold <= 0 || math.IsNaN(opts.SwapThreshold) {
		opts.SwapThreshold = DefaultSwapThreshold
	}
	m := &Model{set: *set, opts: opts}
	m.set.Rescore(opts.Scorer)
	return m
}

// Snapshot returns a copy of the current team set.
func (m *Model) Snapshot() domain.TeamSet {
	return m.set
}

func (m *Model) SwapThreshold() float64 {
	return m.opts.SwapThreshold
}

func (m *Model) commit(fn func(set *domain.TeamSet) error) error {
	next := m.set
	if err := fn(&next); err != nil {
		return err
	}
	next.Rescore(m.opts.Scorer)
	m.set = next
	return nil
}

func checkRef(ref domain.SlotRef) error {
	if !ref.Valid() {
		return fmt.Errorf("%w: squad %d slot %d", domain.ErrInvalidSlotReference, ref.Squad, ref.Slot)
	}
	return nil
}

// Assign places characterID at ref, replacing any occupant. An empty id
// clears the slot.
func (m *Model) Assign(ref domain.SlotRef, characterID string) error {
	if err := checkRef(ref); err != nil {
		return err
	}
	return m.commit(func(set *domain.TeamSet) error {
		set.Squads[ref.Squad].Slots[ref.Slot] = domain.Slot{CharacterID: characterID}
		return nil
	})
}

// Remove empties the slot at ref.
func (m *Model) Remove(ref domain.SlotRef) error {
	return m.Assign(ref, "")
}

// Clear empties every slot of a squad.
func (m *Model) Clear(squad int) error {
	if squad < 0 || squad >= domain.SquadsPerSet {
		return fmt.Errorf("%w: squad %d", domain.ErrInvalidSlotReference, squad)
	}
	return m.commit(func(set *domain.TeamSet) error {
		set.Squads[squad].Slots = [domain.SlotsPerSquad]domain.Slot{}
		return nil
	})
}

// MoveOrSwap completes a drag from src to dst. overlap is the fraction of the
// destination slot covered by the dragged item when it was released.
func (m *Model) MoveOrSwap(src, dst domain.SlotRef, overlap float64) (Outcome, error) {
	if err := checkRef(src); err != nil {
		return Outcome{}, err
	}
	if err := checkRef(dst); err != nil {
		return Outcome{}, err
	}
	if src == dst || m.set.Slot(src).IsEmpty() {
		return Outcome{Kind: OutcomeNoop}, nil
	}

	var out Outcome
	err := m.commit(func(set *domain.TeamSet) error {
		moving := set.Slot(src)
		target := set.Slot(dst)

		switch {
		case target.IsEmpty():
			out.Kind = OutcomeMove
			set.Squads[src.Squad].Slots[src.Slot] = domain.Slot{}
			set.Squads[dst.Squad].Slots[dst.Slot] = moving
		case overlap >= m.opts.SwapThreshold:
			out.Kind = OutcomeSwap
			set.Squads[src.Squad].Slots[src.Slot] = target
			set.Squads[dst.Squad].Slots[dst.Slot] = moving
		default:
			out.Kind = OutcomeInsert
			set.Squads[src.Squad].Slots[src.Slot] = domain.Slot{}
			out.Evicted = insertAt(&set.Squads[dst.Squad], dst.Slot, moving)
		}
		return nil
	})
	return out, err
}

// insertAt puts slot at index i, shifting occupants toward the nearest empty
// slot. Later slots shift right first; if none is empty, earlier slots shift
// left. In a full squad the last occupant is evicted and returned.
func insertAt(sq *domain.Squad, i int, slot domain.Slot) string {
	for e := i; e < domain.SlotsPerSquad; e++ {
		if sq.Slots[e].IsEmpty() {
			copy(sq.Slots[i+1:e+1], sq.Slots[i:e])
			sq.Slots[i] = slot
			return ""
		}
	}
	for e := i - 1; e >= 0; e-- {
		if sq.Slots[e].IsEmpty() {
			copy(sq.Slots[e:i], sq.Slots[e+1:i+1])
			sq.Slots[i] = slot
			return ""
		}
	}

	last := domain.SlotsPerSquad - 1
	evicted := sq.Slots[last].CharacterID
	copy(sq.Slots[i+1:], sq.Slots[i:last])
	sq.Slots[i] = slot
	return evicted
}

// Contains reports whether characterID occupies any slot.
func (m *Model) Contains(characterID string) bool {
	if characterID == "" {
		return false
	}
	for _, sq := range m.set.Squads {
		for _, slot := range sq.Slots {
			if slot.CharacterID == characterID {
				return true
			}
		}
	}
	return false
}

// Place puts characterID into the first empty slot in row-major order.
func (m *Model) Place(characterID string) (domain.SlotRef, error) {
	for i, sq := range m.set.Squads {
		for j, slot := range sq.Slots {
			if slot.IsEmpty() {
				ref := domain.SlotRef{Squad: i, Slot: j}
				return ref, m.Assign(ref, characterID)
			}
		}
	}
	return domain.SlotRef{}, domain.ErrTeamSetFull
}

// Toggle removes every occurrence of characterID, or places it when absent.
// It reports whether the character was added.
func (m *Model) Toggle(characterID string) (bool, error) {
	if characterID == "" {
		return false, fmt.Errorf("%w: empty id", domain.ErrCharacterNotFound)
	}
	if !m.Contains(characterID) {
		_, err := m.Place(characterID)
		return err == nil, err
	}
	err := m.commit(func(set *domain.TeamSet) error {
		for i := range set.Squads {
			for j := range set.Squads[i].Slots {
				if set.Squads[i].Slots[j].CharacterID == characterID {
					set.Squads[i].Slots[j] = domain.Slot{}
				}
			}
		}
		return nil
	})
	return false, err
}
