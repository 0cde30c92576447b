package websocket

import (
	"context"
	"errors"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/lineup"
	"github.com/dom/squad-roster/internal/service"
)

// Roster is the part of the roster service the gesture channel drives.
type Roster interface {
	MoveOrSwap(ctx context.Context, setID string, src, dst domain.SlotRef, overlap float64) (service.Result, lineup.Outcome, error)
	Snapshot(setID string) (domain.TeamSet, error)
	State() *domain.AppState
	SwapThreshold() float64
}

// Gesture tracks one client's drag. Only End with a destination commits a
// change; Start, Over and Cancel are visual only.
type Gesture struct {
	roster Roster
	active bool
	setID  string
	source domain.SlotRef
}

func NewGesture(roster Roster) *Gesture {
	return &Gesture{roster: roster}
}

// Active reports whether a drag is in progress.
func (g *Gesture) Active() bool {
	return g.active
}

// Start begins a drag. A drag from an empty slot is refused and leaves no
// gesture in progress.
func (g *Gesture) Start(p DragStartPayload) error {
	g.active = false
	if !p.Source.Valid() {
		return domain.ErrInvalidSlotReference
	}
	set, err := g.roster.Snapshot(p.TeamSetID)
	if err != nil {
		return err
	}
	if set.Slot(p.Source).IsEmpty() {
		return errEmptySource
	}
	g.active = true
	g.setID = set.ID
	g.source = p.Source
	return nil
}

// Over computes what releasing at dest would do, without changing anything.
func (g *Gesture) Over(p DragOverPayload) (DragPreviewPayload, bool) {
	if !g.active {
		return DragPreviewPayload{}, false
	}
	preview := DragPreviewPayload{TeamSetID: g.setID, Source: g.source, Dest: p.Dest, Action: PreviewNone}
	if p.Dest == nil || !p.Dest.Valid() || *p.Dest == g.source {
		return preview, true
	}

	set, err := g.roster.Snapshot(g.setID)
	if err != nil {
		return preview, true
	}
	switch {
	case set.Slot(*p.Dest).IsEmpty():
		preview.Action = PreviewMove
	case p.Overlap >= g.roster.SwapThreshold():
		preview.Action = PreviewSwap
	default:
		preview.Action = PreviewInsert
	}
	return preview, true
}

// End finishes the drag. committed is false when nothing was attempted: no
// drag in progress, or the item was dropped outside every slot (no
// destination, or one off the grid).
func (g *Gesture) End(ctx context.Context, p DragEndPayload) (res service.Result, result DragResultPayload, committed bool, err error) {
	if !g.active {
		return service.Result{}, DragResultPayload{}, false, nil
	}
	g.active = false
	if p.Dest == nil || !p.Dest.Valid() {
		return service.Result{}, DragResultPayload{}, false, nil
	}

	res, out, err := g.roster.MoveOrSwap(ctx, g.setID, g.source, *p.Dest, p.Overlap)
	if err != nil {
		return service.Result{}, DragResultPayload{}, false, err
	}
	return res, DragResultPayload{TeamSetID: g.setID, Source: g.source, Dest: *p.Dest, Outcome: out}, true, nil
}

// Cancel abandons the drag.
func (g *Gesture) Cancel() {
	g.active = false
}

var errEmptySource = errors.New("cannot drag from an empty slot")
