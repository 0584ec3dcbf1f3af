package api

import "net/http"

// RecalcHandler handles the explicit rating replay trigger.
type RecalcHandler struct {
	deps RecalcDependencies
}

// NewRecalcHandler creates a new recalc handler.
func NewRecalcHandler(deps RecalcDependencies) *RecalcHandler {
	return &RecalcHandler{deps: deps}
}

// HandleRecalc handles POST /recalc-ratings requests. The replay is
// idempotent, so repeated triggers are harmless.
func (h *RecalcHandler) HandleRecalc(w http.ResponseWriter, r *http.Request) {
	const op = "api.recalc_ratings"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.RecalcRatings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
