package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/shatranj/internal/adapters/ledger"
	"github.com/okian/shatranj/internal/domain/identity"
)

type mergeRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// MergeHandler previews and applies player merges.
type MergeHandler struct {
	deps MergeDependencies
}

// NewMergeHandler creates a new merge handler.
func NewMergeHandler(deps MergeDependencies) *MergeHandler {
	return &MergeHandler{deps: deps}
}

// HandlePreview handles GET /merge-preview?source_id=&target_id= requests.
func (h *MergeHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.merge_preview"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sourceID := r.URL.Query().Get("source_id")
	targetID := r.URL.Query().Get("target_id")
	if sourceID == "" || targetID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	preview, err := h.deps.PreviewMerge(r.Context(), sourceID, targetID)
	if err != nil {
		writeMergeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// HandleMerge handles POST /merge requests. A merge that partially failed
// still answers 200 with the per-row report; only a refusal to start is an
// error status.
func (h *MergeHandler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	const op = "api.merge"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.SourceID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	report, err := h.deps.MergePlayers(r.Context(), req.SourceID, req.TargetID)
	if err != nil {
		writeMergeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeMergeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, identity.ErrSameIdentity):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
