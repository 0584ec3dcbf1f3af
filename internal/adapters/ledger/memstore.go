package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/shatranj/internal/domain/model"
)

// MemStore implements Store in memory. It backs tests and development runs
// and doubles as the reference semantics for the SQLite store.
type MemStore struct {
	mu      sync.RWMutex
	games   []model.GameRecord
	roster  map[string]model.Player
	ratings map[string]model.RatingState
	nextSeq int64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		roster:  make(map[string]model.Player),
		ratings: make(map[string]model.RatingState),
		nextSeq: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListGames returns games matching the filter in insertion order.
func (s *MemStore) ListGames(ctx context.Context, f Filter) ([]model.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.GameRecord, 0, len(s.games))
	for i := range s.games {
		if f.Matches(&s.games[i]) {
			out = append(out, s.games[i])
		}
	}
	return out, nil
}

// AppendGame persists a new game record.
func (s *MemStore) AppendGame(ctx context.Context, g model.GameRecord) (model.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.GameRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.Seq = s.nextSeq
	s.nextSeq++
	s.games = append(s.games, g)
	return g, nil
}

// UpdateGame rewrites an existing record in place. The id is the row
// identity; an empty id never matches.
func (s *MemStore) UpdateGame(ctx context.Context, g model.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.ID == "" {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.games {
		if s.games[i].ID == g.ID {
			g.Seq = s.games[i].Seq // sequence numbers never move
			s.games[i] = g
			return nil
		}
	}
	return ErrNotFound
}

// DeleteGame removes a record by id.
func (s *MemStore) DeleteGame(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.games {
		if s.games[i].ID == id {
			s.games = append(s.games[:i], s.games[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListRoster returns every registered player.
func (s *MemStore) ListRoster(ctx context.Context) ([]model.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Player, 0, len(s.roster))
	for _, p := range s.roster {
		out = append(out, p)
	}
	return out, nil
}

// GetPlayer returns a single roster entry.
func (s *MemStore) GetPlayer(ctx context.Context, id string) (model.Player, error) {
	if err := ctx.Err(); err != nil {
		return model.Player{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.roster[id]
	if !ok {
		return model.Player{}, ErrNotFound
	}
	return p, nil
}

// UpdatePlayer inserts or rewrites a roster entry.
func (s *MemStore) UpdatePlayer(ctx context.Context, p model.Player) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roster[p.ID] = p
	return nil
}

// ListRatings returns the persisted rating snapshot.
func (s *MemStore) ListRatings(ctx context.Context) ([]model.RatingState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RatingState, 0, len(s.ratings))
	for _, r := range s.ratings {
		out = append(out, r)
	}
	return out, nil
}

// SaveRatings replaces the persisted rating snapshot wholesale.
func (s *MemStore) SaveRatings(ctx context.Context, states []model.RatingState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings = make(map[string]model.RatingState, len(states))
	for _, r := range states {
		s.ratings[r.PlayerID] = r
	}
	return nil
}
