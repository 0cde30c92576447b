package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/lineup"
	"github.com/dom/squad-roster/internal/service"
)

type RosterHandler struct {
	rosterService *service.RosterService
}

func NewRosterHandler(rosterService *service.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

type StateResponse struct {
	State         *domain.AppState `json:"state"`
	SwapThreshold float64          `json:"swapThreshold"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type AssignRequest struct {
	CharacterID string `json:"characterId"`
}

type MoveRequest struct {
	Source  domain.SlotRef `json:"source"`
	Dest    domain.SlotRef `json:"dest"`
	Overlap float64        `json:"overlap"`
}

type MoveResponse struct {
	service.Result
	Outcome lineup.Outcome `json:"outcome"`
}

type ToggleRequest struct {
	CharacterID string `json:"characterId"`
}

type ToggleResponse struct {
	service.Result
	Added bool `json:"added"`
}

type CurateRequest struct {
	IDs []string `json:"ids"`
}

type CurateResponse struct {
	service.Result
	Added []string `json:"added,omitempty"`
}

func (h *RosterHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StateResponse{
		State:         h.rosterService.State(),
		SwapThreshold: h.rosterService.SwapThreshold(),
	})
}

func (h *RosterHandler) Activate(w http.ResponseWriter, r *http.Request) {
	res, err := h.rosterService.Activate(r.Context(), setIDParam(r))
	if err != nil {
		fail(w, "roster.Activate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RosterHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.rosterService.Rename(r.Context(), setIDParam(r), req.Name)
	if err != nil {
		fail(w, "roster.Rename", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ResetSet empties one team set.
func (h *RosterHandler) ResetSet(w http.ResponseWriter, r *http.Request) {
	setID := setIDParam(r)
	if setID == "" {
		setID = h.rosterService.State().ActiveSet().ID
	}

	res, err := h.rosterService.Reset(r.Context(), setID)
	if err != nil {
		fail(w, "roster.ResetSet", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ResetAll restores the default state.
func (h *RosterHandler) ResetAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.rosterService.Reset(r.Context(), "")
	if err != nil {
		fail(w, "roster.ResetAll", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RosterHandler) Assign(w http.ResponseWriter, r *http.Request) {
	ref, ok := slotRefParam(r)
	if !ok {
		http.Error(w, "Invalid slot", http.StatusBadRequest)
		return
	}
	var req AssignRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.rosterService.Assign(r.Context(), setIDParam(r), ref, req.CharacterID)
	if err != nil {
		fail(w, "roster.Assign", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RosterHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ref, ok := slotRefParam(r)
	if !ok {
		http.Error(w, "Invalid slot", http.StatusBadRequest)
		return
	}

	res, err := h.rosterService.Remove(r.Context(), setIDParam(r), ref)
	if err != nil {
		fail(w, "roster.Remove", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Move applies a completed drag. Clients that stream the gesture use the
// websocket instead.
func (h *RosterHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, out, err := h.rosterService.MoveOrSwap(r.Context(), setIDParam(r), req.Source, req.Dest, req.Overlap)
	if err != nil {
		fail(w, "roster.Move", err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Result: res, Outcome: out})
}

func (h *RosterHandler) ClearSquad(w http.ResponseWriter, r *http.Request) {
	squad, ok := intParam(r, "squad")
	if !ok {
		http.Error(w, "Invalid squad", http.StatusBadRequest)
		return
	}

	res, err := h.rosterService.ClearSquad(r.Context(), setIDParam(r), squad)
	if err != nil {
		fail(w, "roster.ClearSquad", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RosterHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, added, err := h.rosterService.Toggle(r.Context(), setIDParam(r), req.CharacterID)
	if err != nil {
		fail(w, "roster.Toggle", err)
		return
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Result: res, Added: added})
}

// Curate adds characters to the curated subset.
func (h *RosterHandler) Curate(w http.ResponseWriter, r *http.Request) {
	var req CurateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, added, err := h.rosterService.Curate(r.Context(), req.IDs)
	if err != nil {
		fail(w, "roster.Curate", err)
		return
	}
	writeJSON(w, http.StatusOK, CurateResponse{Result: res, Added: added})
}

func (h *RosterHandler) Uncurate(w http.ResponseWriter, r *http.Request) {
	var req CurateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.rosterService.Uncurate(r.Context(), req.IDs)
	if err != nil {
		fail(w, "roster.Uncurate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RosterHandler) UncurateOne(w http.ResponseWriter, r *http.Request) {
	res, err := h.rosterService.Uncurate(r.Context(), []string{chi.URLParam(r, "id")})
	if err != nil {
		fail(w, "roster.UncurateOne", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RosterHandler) ClearCurated(w http.ResponseWriter, r *http.Request) {
	res, err := h.rosterService.ClearCurated(r.Context())
	if err != nil {
		fail(w, "roster.ClearCurated", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func slotRefParam(r *http.Request) (domain.SlotRef, bool) {
	squad, ok := intParam(r, "squad")
	if !ok {
		return domain.SlotRef{}, false
	}
	slot, ok := intParam(r, "slot")
	if !ok {
		return domain.SlotRef{}, false
	}
	return domain.SlotRef{Squad: squad, Slot: slot}, true
}
