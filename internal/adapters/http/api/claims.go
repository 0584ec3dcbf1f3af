package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/shatranj/internal/domain/ownership"
)

type claimRequest struct {
	PlayerID  string `json:"player_id"`
	Requester string `json:"requester"`
}

type resolveRequest struct {
	PlayerID string `json:"player_id"`
	Actor    string `json:"actor"`
	Approve  bool   `json:"approve"`
}

type claimStatusResponse struct {
	PlayerID string `json:"playerId"`
	State    string `json:"state"`
	Holder   string `json:"holder,omitempty"`
}

// ClaimsHandler drives the ownership claim workflow.
type ClaimsHandler struct {
	deps OwnershipDependencies
}

// NewClaimsHandler creates a new claims handler.
func NewClaimsHandler(deps OwnershipDependencies) *ClaimsHandler {
	return &ClaimsHandler{deps: deps}
}

// HandleClaims handles GET /claims?player_id= and POST /claims requests.
func (h *ClaimsHandler) HandleClaims(w http.ResponseWriter, r *http.Request) {
	const op = "api.claims"
	switch r.Method {
	case http.MethodGet:
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		state, holder := h.deps.OwnershipStatus(playerID)
		writeJSON(w, http.StatusOK, claimStatusResponse{
			PlayerID: playerID,
			State:    string(state),
			Holder:   holder,
		})
	case http.MethodPost:
		var req claimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if req.PlayerID == "" || req.Requester == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		claim, err := h.deps.ClaimPlayer(r.Context(), req.PlayerID, req.Requester)
		if err != nil {
			writeClaimError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, claim)
	default:
		http.NotFound(w, r)
	}
}

// HandleResolve handles POST /claims/resolve requests.
func (h *ClaimsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.claims_resolve"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.PlayerID == "" || req.Actor == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	claim, err := h.deps.ResolveClaim(r.Context(), req.PlayerID, req.Actor, req.Approve)
	if err != nil {
		writeClaimError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func writeClaimError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ownership.ErrNoPendingClaim):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, ownership.ErrClaimPending),
		errors.Is(err, ownership.ErrAlreadyHolder):
		writeError(w, http.StatusConflict, "conflict", Wrap(op, err))
	case errors.Is(err, ownership.ErrNotHolder),
		errors.Is(err, ownership.ErrSelfResolve):
		writeError(w, http.StatusForbidden, "forbidden", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
