package ledger

import (
	"github.com/google/uuid"

	"github.com/okian/shatranj/internal/domain/model"
)

// MemOption applies a configuration option to a MemStore.
type MemOption func(*MemStore)

// WithRoster seeds the store with roster entries.
func WithRoster(players ...model.Player) MemOption {
	return func(s *MemStore) {
		for _, p := range players {
			s.roster[p.ID] = p
		}
	}
}

// WithGames seeds the store with game records, assigning ids and sequence
// numbers in the given order. Seeded rows get the same id treatment as
// appended ones so updates by id stay unambiguous.
func WithGames(games ...model.GameRecord) MemOption {
	return func(s *MemStore) {
		for _, g := range games {
			if g.ID == "" {
				g.ID = uuid.NewString()
			}
			g.Seq = s.nextSeq
			s.nextSeq++
			s.games = append(s.games, g)
		}
	}
}
