package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/campusengage/engine/internal/domain/match"
)

// matchRequest pairs an event with a student profile for scoring.
type matchRequest struct {
	Event   match.Event   `json:"event"`
	Student match.Student `json:"student"`
}

func (m matchRequest) validate() error {
	switch {
	case strings.TrimSpace(m.Event.ID) == "":
		return errors.New("missing event.id")
	case strings.TrimSpace(m.Student.ID) == "":
		return errors.New("missing student.id")
	}
	return nil
}

// matchResponse carries the score breakdown plus the derived recommendation
// signals.
type matchResponse struct {
	Match        match.Result `json:"match"`
	ClosingSoon  bool         `json:"closingSoon"`
	Recommended  bool         `json:"recommended"`
	AlertMessage string       `json:"alertMessage,omitempty"`
}

// MatchHandler handles match scoring requests.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleMatch handles POST /match requests. The alert message is only
// rendered when the pair actually qualifies for an alert.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, closing, recommended := h.deps.Match(r.Context(), req.Event, req.Student)
	resp := matchResponse{Match: result, ClosingSoon: closing, Recommended: recommended}
	if recommended {
		resp.AlertMessage = h.deps.AlertMessage(r.Context(), req.Event, req.Student)
	}
	writeJSON(w, http.StatusOK, resp)
}
