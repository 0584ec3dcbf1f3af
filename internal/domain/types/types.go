// Package types contains common read shapes shared across the application.
package types

import (
	"time"

	"github.com/okian/shatranj/internal/domain/model"
)

// Standing is one public ladder row. It mirrors the cached player payload.
type Standing struct {
	Rank        int        `json:"rank"`
	PlayerID    string     `json:"id"`
	Name        string     `json:"name"`
	Grade       string     `json:"grade,omitempty"`
	EloRating   float64    `json:"eloRating"`
	GamesPlayed int        `json:"gamesPlayed"`
	Wins        int        `json:"wins"`
	Losses      int        `json:"losses"`
	Draws       int        `json:"draws"`
	Points      float64    `json:"points"`
	LastActive  *time.Time `json:"lastActive,omitempty"`
}

// StandingsView is the standings payload served to callers: the ranked rows
// plus the game records inside the window they were derived from.
// QuotaExceeded marks a degraded response assembled from cache while the
// backing store is off-limits.
type StandingsView struct {
	Date          string             `json:"date,omitempty"`
	GameType      string             `json:"gameType,omitempty"`
	Games         []model.GameRecord `json:"games"`
	Players       []Standing         `json:"players"`
	QuotaExceeded bool               `json:"quotaExceeded,omitempty"`
}

// QuotaStatus reports the breaker state for operational visibility.
type QuotaStatus struct {
	QuotaExceeded   bool  `json:"quotaExceeded"`
	TimeRemainingMS int64 `json:"timeRemainingMs"`
}

// RecalcReport summarizes a full rating replay.
type RecalcReport struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// MergeReport is the structured result of a player merge. Batch operations
// never return a bare boolean.
type MergeReport struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ReconcileRow is one proposed or applied identity rewrite.
type ReconcileRow struct {
	GameID    string `json:"gameId"`
	Side      int    `json:"side"`
	OldID     string `json:"oldId"`
	OldName   string `json:"oldName"`
	NewID     string `json:"newId"`
	NewName   string `json:"newName"`
	Ambiguous bool   `json:"ambiguous,omitempty"`
}

// ReconcileReport is the preview or apply result of batch reconciliation.
type ReconcileReport struct {
	Action   string         `json:"action"`
	Proposed []ReconcileRow `json:"proposed,omitempty"`
	Updated  int            `json:"updated"`
	Failed   int            `json:"failed"`
	Errors   []string       `json:"errors,omitempty"`
}
