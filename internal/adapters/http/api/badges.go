package api

import (
	"net/http"
	"strconv"
	"strings"
)

// BadgesHandler handles badge status reads.
type BadgesHandler struct {
	deps Dependencies
}

// NewBadgesHandler creates a new badges handler.
func NewBadgesHandler(deps Dependencies) *BadgesHandler {
	return &BadgesHandler{deps: deps}
}

// HandleGetBadges handles GET /badges/{student_id}?points=N requests.
// Without an explicit points value the student's current ledger total is
// used.
func (h *BadgesHandler) HandleGetBadges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	studentID := strings.TrimPrefix(r.URL.Path, "/badges/")
	if studentID == "" || strings.Contains(studentID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	totalPoints := -1
	if raw := r.URL.Query().Get("points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		totalPoints = n
	}

	status, err := h.deps.BadgeStatus(r.Context(), studentID, totalPoints)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
