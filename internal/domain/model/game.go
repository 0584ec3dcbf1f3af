// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// UnknownPlayerID is the synthetic roster entry used when an opponent was
// never registered. Games against it are kept in the ledger but excluded
// from rating math.
const UnknownPlayerID = "unknown-opponent"

// Result is the closed outcome domain of a two-player game.
type Result string

const (
	ResultPlayer1 Result = "player1"
	ResultPlayer2 Result = "player2"
	ResultDraw    Result = "draw"
)

// ParseResult validates a free-form result value at the ingestion boundary.
func ParseResult(s string) (Result, error) {
	switch Result(strings.ToLower(strings.TrimSpace(s))) {
	case ResultPlayer1:
		return ResultPlayer1, nil
	case ResultPlayer2:
		return ResultPlayer2, nil
	case ResultDraw:
		return ResultDraw, nil
	default:
		return "", ErrUnknownResult
	}
}

// GameType is the closed category domain of a recorded game.
type GameType string

const (
	TypeLadder     GameType = "ladder"
	TypeTournament GameType = "tournament"
	TypeFriendly   GameType = "friendly"
	TypePractice   GameType = "practice"
)

// ParseGameType validates a free-form game type at the ingestion boundary.
func ParseGameType(s string) (GameType, error) {
	switch GameType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeLadder:
		return TypeLadder, nil
	case TypeTournament:
		return TypeTournament, nil
	case TypeFriendly:
		return TypeFriendly, nil
	case TypePractice:
		return TypePractice, nil
	default:
		return "", ErrUnknownGameType
	}
}

// GameRecord is one row of the append-only game ledger.
// Names are denormalized snapshots for display; ids are authoritative.
type GameRecord struct {
	ID          string    `json:"id"`
	Player1ID   string    `json:"player1Id"`
	Player1Name string    `json:"player1Name"`
	Player2ID   string    `json:"player2Id"`
	Player2Name string    `json:"player2Name"`
	Result      Result    `json:"result"`
	GameDate    time.Time `json:"gameDate"`
	GameType    GameType  `json:"gameType"`
	IsVerified  bool      `json:"isVerified"`

	// RatingChange is nil until a replay computes it, and is rewritten
	// wholesale on every replay, never patched incrementally.
	RatingChange *float64 `json:"ratingChange,omitempty"`

	RecordedBy string    `json:"recordedBy,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`

	// Seq is the ledger insertion order, assigned by the store. It is the
	// final tie-break for deterministic replay.
	Seq int64 `json:"seq"`

	Opening string `json:"opening,omitempty"`
	Endgame string `json:"endgame,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Validate rejects malformed records before they reach the ledger.
func (g *GameRecord) Validate() error {
	switch {
	case strings.TrimSpace(g.Player1ID) == "" || strings.TrimSpace(g.Player2ID) == "":
		return ErrMissingPlayer
	case g.Player1ID == g.Player2ID:
		return ErrSamePlayer
	}
	if _, err := ParseResult(string(g.Result)); err != nil {
		return err
	}
	if _, err := ParseGameType(string(g.GameType)); err != nil {
		return err
	}
	if g.GameDate.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Involves reports whether either side of the game references playerID.
func (g *GameRecord) Involves(playerID string) bool {
	return g.Player1ID == playerID || g.Player2ID == playerID
}

// WinnerID returns the winning player's id, or "" for a draw.
func (g *GameRecord) WinnerID() string {
	switch g.Result {
	case ResultPlayer1:
		return g.Player1ID
	case ResultPlayer2:
		return g.Player2ID
	default:
		return ""
	}
}
