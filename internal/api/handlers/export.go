package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/service"
)

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Image renders a team set. ?download=1 asks the browser to save the file.
func (h *ExportHandler) Image(w http.ResponseWriter, r *http.Request) {
	setID := setIDParam(r)

	data, contentType, err := h.exportService.Export(r.Context(), setID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			log.Errorf("ERROR [export.Image] set=%s: %v", setID, err)
			http.Error(w, "Export timed out", http.StatusGatewayTimeout)
			return
		}
		fail(w, "export.Image", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if r.URL.Query().Get("download") != "" {
		name := setID
		if name == "" {
			name = activeSet
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "teamset-"+name+".png"))
	}
	w.Write(data)
}

// View returns the data the image is rendered from.
func (h *ExportHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.exportService.View(setIDParam(r))
	if err != nil {
		fail(w, "export.View", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
