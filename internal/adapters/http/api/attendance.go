package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// attendanceRequest is the attendance confirmation signal from the
// attendance system.
type attendanceRequest struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	EventID     string `json:"event_id"`
	EventName   string `json:"event_name"`
	EventType   string `json:"event_type"`
}

func (a attendanceRequest) validate() error {
	switch {
	case strings.TrimSpace(a.StudentID) == "":
		return errors.New("missing student_id")
	case strings.TrimSpace(a.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(a.EventType) == "":
		return errors.New("missing event_type")
	}
	return nil
}

// revokeRequest identifies a credited entry to remove.
type revokeRequest struct {
	StudentID string `json:"student_id"`
	EventID   string `json:"event_id"`
}

func (r revokeRequest) validate() error {
	switch {
	case strings.TrimSpace(r.StudentID) == "":
		return errors.New("missing student_id")
	case strings.TrimSpace(r.EventID) == "":
		return errors.New("missing event_id")
	}
	return nil
}

// AttendanceHandler handles attendance confirmations and corrections.
type AttendanceHandler struct {
	deps Dependencies
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(deps Dependencies) *AttendanceHandler {
	return &AttendanceHandler{deps: deps}
}

// HandleConfirm handles POST /attendance requests. The response always
// carries the resulting ledger; a retried confirmation is flagged as a
// duplicate rather than failing.
func (h *AttendanceHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.deps.AwardPoints(r.Context(), req.StudentID, req.StudentName, req.EventID, req.EventName, req.EventType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type revokeResponse struct {
	Found  bool `json:"found"`
	Ledger any  `json:"ledger"`
}

// HandleRevoke handles POST /attendance/revoke requests. Revoking an event
// that was never credited reports found=false, not an error.
func (h *AttendanceHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req revokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	led, found, err := h.deps.RevokePoints(r.Context(), req.StudentID, req.EventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, revokeResponse{Found: found, Ledger: led})
}
