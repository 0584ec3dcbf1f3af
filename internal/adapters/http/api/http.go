// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/shatranj/internal/domain/identity"
	"github.com/okian/shatranj/internal/domain/ladder"
	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/internal/domain/ownership"
	"github.com/okian/shatranj/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StandingsDependencies
	GameDependencies
	RecalcDependencies
	CacheDependencies
	QuotaDependencies
	MergeDependencies
	ReconcileDependencies
	OwnershipDependencies
}

// StandingsDependencies serves the ranked ladder.
type StandingsDependencies interface {
	Standings(ctx context.Context, q ladder.Query) (types.StandingsView, error)
}

// GameDependencies records and removes ledger rows.
type GameDependencies interface {
	RecordGame(ctx context.Context, g model.GameRecord, submissionID string) (model.GameRecord, bool, error)
	DeleteGame(ctx context.Context, id string) error
}

// RecalcDependencies triggers the full rating replay.
type RecalcDependencies interface {
	RecalcRatings(ctx context.Context) (types.RecalcReport, error)
}

// CacheDependencies exposes manual invalidation.
type CacheDependencies interface {
	InvalidateCache(ctx context.Context, keys, tags []string) []string
}

// QuotaDependencies exposes and resets the breaker.
type QuotaDependencies interface {
	QuotaStatus() types.QuotaStatus
	ResetQuota(ctx context.Context)
}

// MergeDependencies previews and applies player merges.
type MergeDependencies interface {
	PreviewMerge(ctx context.Context, sourceID, targetID string) (identity.MergePreview, error)
	MergePlayers(ctx context.Context, sourceID, targetID string) (types.MergeReport, error)
}

// ReconcileDependencies runs the batch identity repair pass.
type ReconcileDependencies interface {
	Reconcile(ctx context.Context, action string) (types.ReconcileReport, error)
}

// OwnershipDependencies drives the claim workflow.
type OwnershipDependencies interface {
	ClaimPlayer(ctx context.Context, playerID, requester string) (ownership.Claim, error)
	ResolveClaim(ctx context.Context, playerID, actor string, approve bool) (ownership.Claim, error)
	OwnershipStatus(playerID string) (ownership.State, string)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	standingsHandler *StandingsHandler
	gamesHandler     *GamesHandler
	recalcHandler    *RecalcHandler
	cacheHandler     *CacheHandler
	quotaHandler     *QuotaHandler
	mergeHandler     *MergeHandler
	reconcileHandler *ReconcileHandler
	claimsHandler    *ClaimsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		standingsHandler: NewStandingsHandler(deps),
		gamesHandler:     NewGamesHandler(deps),
		recalcHandler:    NewRecalcHandler(deps),
		cacheHandler:     NewCacheHandler(deps),
		quotaHandler:     NewQuotaHandler(deps),
		mergeHandler:     NewMergeHandler(deps),
		reconcileHandler: NewReconcileHandler(deps),
		claimsHandler:    NewClaimsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandlePostGame, "games"))
	mux.HandleFunc("/games/", MetricsMiddleware(s.gamesHandler.HandleGameByID, "game"))
	mux.HandleFunc("/recalc-ratings", MetricsMiddleware(s.recalcHandler.HandleRecalc, "recalc"))
	mux.HandleFunc("/cache/invalidate", MetricsMiddleware(s.cacheHandler.HandleInvalidate, "cache_invalidate"))
	mux.HandleFunc("/quota-status", MetricsMiddleware(s.quotaHandler.HandleQuota, "quota_status"))
	mux.HandleFunc("/merge-preview", MetricsMiddleware(s.mergeHandler.HandlePreview, "merge_preview"))
	mux.HandleFunc("/merge", MetricsMiddleware(s.mergeHandler.HandleMerge, "merge"))
	mux.HandleFunc("/reconcile", MetricsMiddleware(s.reconcileHandler.HandleReconcile, "reconcile"))
	mux.HandleFunc("/claims", MetricsMiddleware(s.claimsHandler.HandleClaims, "claims"))
	mux.HandleFunc("/claims/resolve", MetricsMiddleware(s.claimsHandler.HandleResolve, "claims_resolve"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
