package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/shatranj/internal/domain/identity"
)

type reconcileRequest struct {
	Action string `json:"action"`
}

// ReconcileHandler runs the batch identity repair pass.
type ReconcileHandler struct {
	deps ReconcileDependencies
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(deps ReconcileDependencies) *ReconcileHandler {
	return &ReconcileHandler{deps: deps}
}

// HandleReconcile handles POST /reconcile requests. Action must be
// "preview" or "apply"; there is no single-phase mode. Partial apply
// failures still answer 200 with the per-row report.
func (h *ReconcileHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "api.reconcile"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	report, err := h.deps.Reconcile(r.Context(), req.Action)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownAction) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
