package api

import (
	"errors"
	"net/http"
	"time"

	service "github.com/okian/shatranj/internal/app"
	"github.com/okian/shatranj/internal/domain/ladder"
	"github.com/okian/shatranj/internal/domain/model"
)

const dateLayout = "2006-01-02"

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandleGetStandings handles GET /standings?date=&from=&to=&type=&active=
// requests. A quota-degraded response is still 200: the payload carries the
// quotaExceeded flag. Only a cold cache behind an open breaker yields 503.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q, err := parseStandingsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	view, err := h.deps.Standings(r.Context(), q)
	if err != nil {
		if errors.Is(err, service.ErrNoCachedData) {
			writeError(w, http.StatusServiceUnavailable, "quota_exhausted", NewKind(op, ErrUnavailable))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func parseStandingsQuery(r *http.Request) (ladder.Query, error) {
	var q ladder.Query
	params := r.URL.Query()

	if raw := params.Get("type"); raw != "" {
		gt, err := model.ParseGameType(raw)
		if err != nil {
			return ladder.Query{}, err
		}
		q.GameType = gt
	}
	if raw := params.Get("date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ladder.Query{}, errors.New("invalid date; must be YYYY-MM-DD")
		}
		q.DateFrom, q.DateTo = &d, &d
	}
	if raw := params.Get("from"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ladder.Query{}, errors.New("invalid from; must be YYYY-MM-DD")
		}
		q.DateFrom = &d
	}
	if raw := params.Get("to"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ladder.Query{}, errors.New("invalid to; must be YYYY-MM-DD")
		}
		q.DateTo = &d
	}
	q.ActiveOnly = params.Get("active") == "true"
	return q, nil
}
