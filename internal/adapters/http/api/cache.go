package api

import (
	"encoding/json"
	"net/http"
)

type invalidateRequest struct {
	Keys []string `json:"keys,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

type invalidateResponse struct {
	Removed []string `json:"removed"`
}

// CacheHandler handles manual cache invalidation.
type CacheHandler struct {
	deps CacheDependencies
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps CacheDependencies) *CacheHandler {
	return &CacheHandler{deps: deps}
}

// HandleInvalidate handles POST /cache/invalidate requests.
func (h *CacheHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.cache_invalidate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Keys) == 0 && len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	removed := h.deps.InvalidateCache(r.Context(), req.Keys, req.Tags)
	if removed == nil {
		removed = []string{}
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Removed: removed})
}
