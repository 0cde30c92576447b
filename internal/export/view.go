// Package export renders a team-set snapshot to an image.
package export

import (
	"context"
	"fmt"

	"github.com/dom/squad-roster/internal/domain"
)

// Renderer turns a snapshot into encoded image bytes. Implementations must not
// retain the view.
type Renderer interface {
	Render(ctx context.Context, view TeamSetView) ([]byte, error)
	ContentType() string
}

type TeamSetView struct {
	Title  string      `json:"title"`
	Squads []SquadView `json:"squads"`
}

type SquadView struct {
	Label string     `json:"label"`
	Score float64    `json:"score"`
	Slots []SlotView `json:"slots"`
}

// SlotView is one cell. An empty CharacterID is an empty slot.
type SlotView struct {
	CharacterID string `json:"characterId,omitempty"`
	Name        string `json:"name,omitempty"`
	Image       string `json:"image,omitempty"`
}

// CharacterLookup resolves ids to catalog records.
type CharacterLookup interface {
	ByID(id string) (*domain.CharacterRecord, bool)
}

// NewView builds a view from a team-set snapshot. Ids missing from the
// catalog keep their id as the name and have no image.
func NewView(set domain.TeamSet, lookup CharacterLookup) TeamSetView {
	view := TeamSetView{Title: set.DisplayName()}
	for i, sq := range set.Squads {
		sv := SquadView{
			Label: fmt.Sprintf("Squad %d", i+1),
			Score: sq.Score,
			Slots: make([]SlotView, 0, domain.SlotsPerSquad),
		}
		for _, slot := range sq.Slots {
			cell := SlotView{CharacterID: slot.CharacterID}
			if !slot.IsEmpty() {
				cell.Name = slot.CharacterID
				if rec, ok := lookup.ByID(slot.CharacterID); ok {
					cell.Name = rec.Name
					cell.Image = rec.File
				}
			}
			sv.Slots = append(sv.Slots, cell)
		}
		view.Squads = append(view.Squads, sv)
	}
	return view
}
