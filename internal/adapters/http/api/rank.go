package api

import (
	"net/http"
	"strings"
)

// RankHandler handles rank reads.
type RankHandler struct {
	deps Dependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps Dependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{student_id} requests. Unknown students
// come back with rank 0 rather than a 404; a missing ledger is a valid
// empty state.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	studentID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if studentID == "" || strings.Contains(studentID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Rank(r.Context(), studentID))
}
