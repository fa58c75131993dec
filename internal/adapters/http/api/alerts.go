package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// dismissRequest identifies the alert being acknowledged.
type dismissRequest struct {
	EventID string `json:"event_id"`
}

func (d dismissRequest) validate() error {
	if strings.TrimSpace(d.EventID) == "" {
		return errors.New("missing event_id")
	}
	return nil
}

type dismissedResponse struct {
	EventID   string `json:"event_id"`
	Dismissed bool   `json:"dismissed"`
}

// AlertsHandler handles alert dismissal state.
type AlertsHandler struct {
	deps Dependencies
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(deps Dependencies) *AlertsHandler {
	return &AlertsHandler{deps: deps}
}

// HandleDismiss handles POST /alerts/dismiss requests. Dismissing the same
// alert twice is a no-op.
func (h *AlertsHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.deps.DismissAlert(r.Context(), req.EventID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, dismissedResponse{EventID: req.EventID, Dismissed: true})
}

// HandleClear handles POST /alerts/clear requests.
func (h *AlertsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.ClearAlerts(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// HandleIsDismissed handles GET /alerts/dismissed/{event_id} requests.
func (h *AlertsHandler) HandleIsDismissed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	eventID := strings.TrimPrefix(r.URL.Path, "/alerts/dismissed/")
	if eventID == "" || strings.Contains(eventID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	dismissed, err := h.deps.IsDismissed(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, dismissedResponse{EventID: eventID, Dismissed: dismissed})
}
