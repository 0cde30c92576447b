package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/domain"
)

// activeSet is the URL alias for whichever team set is currently selected.
const activeSet = "active"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// fail maps a service error onto a status code and logs it under op.
func fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("ERROR [%s]: %v", op, err)
		http.Error(w, "Internal server error", status)
		return
	}
	log.Debugf("[%s]: %v", op, err)
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSlotReference),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidShareCode),
		errors.Is(err, domain.ErrInvalidBackup):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCharacterNotFound),
		errors.Is(err, domain.ErrTeamSetNotFound),
		errors.Is(err, domain.ErrSavedSetNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSavedSetExists),
		errors.Is(err, domain.ErrTeamSetFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}

// setIDParam reads the team set id, mapping the "active" alias to "".
func setIDParam(r *http.Request) string {
	id := chi.URLParam(r, "setID")
	if id == activeSet {
		return ""
	}
	return id
}

// intParam reads a numeric path parameter. Range checks are left to the
// slot model so out-of-grid values surface as invalid references.
func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}
