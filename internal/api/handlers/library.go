package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dom/squad-roster/internal/domain"
	"github.com/dom/squad-roster/internal/service"
)

// maxBackupBytes bounds a restore upload.
const maxBackupBytes = 8 << 20

type LibraryHandler struct {
	libraryService *service.LibraryService
}

func NewLibraryHandler(libraryService *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService}
}

type SaveSetRequest struct {
	Name      string `json:"name"`
	TeamSetID string `json:"teamSetId"` // "" = active set
	Overwrite bool   `json:"overwrite"`
}

type LoadSetRequest struct {
	TeamSetID string `json:"teamSetId"`
}

type ImportRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.libraryService.List(r.Context())
	if err != nil {
		fail(w, "library.List", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LibraryHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req SaveSetRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TeamSetID == activeSet {
		req.TeamSetID = ""
	}

	res, err := h.libraryService.Save(r.Context(), req.Name, req.TeamSetID, req.Overwrite)
	if err != nil {
		fail(w, "library.Save", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Load copies a saved set into a live team set.
func (h *LibraryHandler) Load(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	var req LoadSetRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TeamSetID == activeSet {
		req.TeamSetID = ""
	}

	res, err := h.libraryService.Load(r.Context(), name, req.TeamSetID)
	if err != nil {
		fail(w, "library.Load", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LibraryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	name := nameParam(r)

	var req RenameRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.libraryService.Rename(r.Context(), name, req.Name)
	if err != nil {
		fail(w, "library.Rename", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LibraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.libraryService.Delete(r.Context(), nameParam(r))
	if err != nil {
		fail(w, "library.Delete", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LibraryHandler) ShareCode(w http.ResponseWriter, r *http.Request) {
	res, err := h.libraryService.ShareCode(r.Context(), nameParam(r))
	if err != nil {
		fail(w, "library.ShareCode", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ShareTeamSet encodes a live team set without saving it first.
func (h *LibraryHandler) ShareTeamSet(w http.ResponseWriter, r *http.Request) {
	res, err := h.libraryService.ShareTeamSet(setIDParam(r))
	if err != nil {
		fail(w, "library.ShareTeamSet", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *LibraryHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.libraryService.Import(r.Context(), req.Code, req.Name)
	if err != nil {
		fail(w, "library.Import", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Backup downloads the whole library as a JSON document.
func (h *LibraryHandler) Backup(w http.ResponseWriter, r *http.Request) {
	res, err := h.libraryService.Backup(r.Context())
	if err != nil {
		fail(w, "library.Backup", err)
		return
	}
	if res.Warning != "" {
		w.Header().Set("X-Roster-Warning", res.Warning)
	}
	filename := fmt.Sprintf("saved_team_sets_%s.json", res.Backup.ExportedAt.Format("20060102_150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, res.Backup)
}

// Restore reads a backup document from the body. ?mode= picks merge
// (default), replace or skip.
func (h *LibraryHandler) Restore(w http.ResponseWriter, r *http.Request) {
	mode, ok := domain.ParseRestoreMode(r.URL.Query().Get("mode"))
	if !ok {
		http.Error(w, "Invalid restore mode", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.libraryService.Restore(r.Context(), data, mode)
	if err != nil {
		fail(w, "library.Restore", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// nameParam returns the unescaped saved-set name from the path.
func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
