package api

import (
	"net/http"
	"strings"
)

// LedgerHandler handles ledger reads.
type LedgerHandler struct {
	deps Dependencies
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(deps Dependencies) *LedgerHandler {
	return &LedgerHandler{deps: deps}
}

// HandleGetLedger handles GET /ledger/{student_id} requests. A student
// without a ledger gets an empty one, never a 404.
func (h *LedgerHandler) HandleGetLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	studentID := strings.TrimPrefix(r.URL.Path, "/ledger/")
	if studentID == "" || strings.Contains(studentID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	led, err := h.deps.Ledger(r.Context(), studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, led)
}
