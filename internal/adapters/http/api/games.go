package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/shatranj/internal/adapters/ledger"
	"github.com/okian/shatranj/internal/domain/model"
)

// gameRequest mirrors the POST /games payload.
type gameRequest struct {
	SubmissionID string `json:"submission_id"`
	Player1ID    string `json:"player1_id"`
	Player1Name  string `json:"player1_name"`
	Player2ID    string `json:"player2_id"`
	Player2Name  string `json:"player2_name"`
	Result       string `json:"result"`
	GameDate     string `json:"game_date"`
	GameType     string `json:"game_type"`
	IsVerified   bool   `json:"is_verified"`
	RecordedBy   string `json:"recorded_by"`
	Opening      string `json:"opening,omitempty"`
	Endgame      string `json:"endgame,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// toRecord validates the closed enum fields at the boundary and builds the
// ledger record.
func (g gameRequest) toRecord() (model.GameRecord, error) {
	result, err := model.ParseResult(g.Result)
	if err != nil {
		return model.GameRecord{}, err
	}
	gameType, err := model.ParseGameType(g.GameType)
	if err != nil {
		return model.GameRecord{}, err
	}
	if strings.TrimSpace(g.GameDate) == "" {
		return model.GameRecord{}, model.ErrMissingDate
	}
	date, err := time.Parse(dateLayout, g.GameDate)
	if err != nil {
		return model.GameRecord{}, errors.New("invalid game_date; must be YYYY-MM-DD")
	}
	return model.GameRecord{
		Player1ID:   g.Player1ID,
		Player1Name: g.Player1Name,
		Player2ID:   g.Player2ID,
		Player2Name: g.Player2Name,
		Result:      result,
		GameDate:    date,
		GameType:    gameType,
		IsVerified:  g.IsVerified,
		RecordedBy:  g.RecordedBy,
	}, nil
}

type gameAckResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// GamesHandler handles game submission and admin removal.
type GamesHandler struct {
	deps GameDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// HandlePostGame handles POST /games requests.
func (h *GamesHandler) HandlePostGame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_game"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	record, err := req.toRecord()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	record.Opening, record.Endgame, record.Notes = req.Opening, req.Endgame, req.Notes

	stored, duplicate, err := h.deps.RecordGame(r.Context(), record, req.SubmissionID)
	if err != nil {
		if isValidation(err) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, gameAckResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, gameAckResponse{Status: "recorded", ID: stored.ID})
}

// HandleGameByID handles DELETE /games/{id} requests.
func (h *GamesHandler) HandleGameByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_game"
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/games/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.deps.DeleteGame(r.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// isValidation reports whether err belongs to the record validation domain.
func isValidation(err error) bool {
	return errors.Is(err, model.ErrSamePlayer) ||
		errors.Is(err, model.ErrMissingPlayer) ||
		errors.Is(err, model.ErrMissingDate) ||
		errors.Is(err, model.ErrUnknownResult) ||
		errors.Is(err, model.ErrUnknownGameType)
}
