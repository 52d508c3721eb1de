package handlers

import (
	"errors"
	"net/http"

	"github.com/ukydev/placenotes/internal/location"
	"github.com/ukydev/placenotes/internal/models"
)

// LocationHandler exposes the device location over HTTP.
type LocationHandler struct {
	tracker *location.Tracker
}

// NewLocationHandler creates a location handler.
func NewLocationHandler(tracker *location.Tracker) *LocationHandler {
	return &LocationHandler{tracker: tracker}
}

// Current returns the latest fix.
func (h *LocationHandler) Current(w http.ResponseWriter, r *http.Request) {
	fix := h.tracker.Current()
	if fix == nil {
		http.Error(w, "no location fix yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, fix)
}

// Report records a fix sent by a device.
func (h *LocationHandler) Report(w http.ResponseWriter, r *http.Request) {
	var msg location.FixMessage
	if !decodeJSON(w, r, &msg) {
		return
	}
	if err := h.tracker.Update(msg.Fix()); err != nil {
		if errors.Is(err, models.ErrInvalidLocation) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to record location", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, h.tracker.Current())
}
