package api

import (
	"encoding/json"
	"net/http"
)

type quotaActionRequest struct {
	Action string `json:"action"`
}

// QuotaHandler exposes and resets breaker state.
type QuotaHandler struct {
	deps QuotaDependencies
}

// NewQuotaHandler creates a new quota handler.
func NewQuotaHandler(deps QuotaDependencies) *QuotaHandler {
	return &QuotaHandler{deps: deps}
}

// HandleQuota handles GET /quota-status and POST /quota-status requests.
// The only supported action is "reset".
func (h *QuotaHandler) HandleQuota(w http.ResponseWriter, r *http.Request) {
	const op = "api.quota_status"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.QuotaStatus())
	case http.MethodPost:
		var req quotaActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if req.Action != "reset" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		h.deps.ResetQuota(r.Context())
		writeJSON(w, http.StatusOK, h.deps.QuotaStatus())
	default:
		http.NotFound(w, r)
	}
}
