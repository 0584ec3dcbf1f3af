package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/pkg/metrics"
)

// Date layouts used in the games table. Dates are stored as text so replay
// ordering stays independent of driver time handling.
const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

// SQLStore implements Store on a SQLite database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an opened database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const gameColumns = `seq, id, player1_id, player1_name, player2_id, player2_name,
	result, game_date, game_type, is_verified, rating_change,
	recorded_by, recorded_at, opening, endgame, notes`

// ListGames returns games matching the filter in insertion order.
func (s *SQLStore) ListGames(ctx context.Context, f Filter) ([]model.GameRecord, error) {
	defer observe(time.Now())

	query := "SELECT " + gameColumns + " FROM games WHERE 1=1"
	args := make([]any, 0, 5)
	if f.DateFrom != nil {
		query += " AND game_date >= ?"
		args = append(args, f.DateFrom.Format(dateLayout))
	}
	if f.DateTo != nil {
		query += " AND game_date <= ?"
		args = append(args, f.DateTo.Format(dateLayout))
	}
	if f.GameType != "" {
		query += " AND game_type = ?"
		args = append(args, string(f.GameType))
	}
	if f.Verified != nil {
		query += " AND is_verified = ?"
		args = append(args, boolToInt(*f.Verified))
	}
	if f.PlayerID != "" {
		query += " AND (player1_id = ? OR player2_id = ?)"
		args = append(args, f.PlayerID, f.PlayerID)
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.RecordLedgerError()
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []model.GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			metrics.RecordLedgerError()
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordLedgerError()
		return nil, fmt.Errorf("list games: %w", err)
	}
	return out, nil
}

// AppendGame persists a new game record.
func (s *SQLStore) AppendGame(ctx context.Context, g model.GameRecord) (model.GameRecord, error) {
	defer observe(time.Now())

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO games
		(id, player1_id, player1_name, player2_id, player2_name, result,
		 game_date, game_type, is_verified, rating_change, recorded_by,
		 recorded_at, opening, endgame, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Player1ID, g.Player1Name, g.Player2ID, g.Player2Name,
		string(g.Result), g.GameDate.Format(dateLayout), string(g.GameType),
		boolToInt(g.IsVerified), nullableFloat(g.RatingChange), g.RecordedBy,
		g.RecordedAt.Format(timeLayout), g.Opening, g.Endgame, g.Notes)
	if err != nil {
		metrics.RecordLedgerError()
		return model.GameRecord{}, fmt.Errorf("append game: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		metrics.RecordLedgerError()
		return model.GameRecord{}, fmt.Errorf("append game: %w", err)
	}
	g.Seq = seq
	return g, nil
}

// UpdateGame rewrites an existing record in place. The sequence number is
// immutable.
func (s *SQLStore) UpdateGame(ctx context.Context, g model.GameRecord) error {
	defer observe(time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE games SET
		player1_id = ?, player1_name = ?, player2_id = ?, player2_name = ?,
		result = ?, game_date = ?, game_type = ?, is_verified = ?,
		rating_change = ?, recorded_by = ?, recorded_at = ?,
		opening = ?, endgame = ?, notes = ?
		WHERE id = ?`,
		g.Player1ID, g.Player1Name, g.Player2ID, g.Player2Name,
		string(g.Result), g.GameDate.Format(dateLayout), string(g.GameType),
		boolToInt(g.IsVerified), nullableFloat(g.RatingChange), g.RecordedBy,
		g.RecordedAt.Format(timeLayout), g.Opening, g.Endgame, g.Notes, g.ID)
	if err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("update game: %w", err)
	}
	return affectedOrNotFound(res)
}

// DeleteGame removes a record by id.
func (s *SQLStore) DeleteGame(ctx context.Context, id string) error {
	defer observe(time.Now())

	res, err := s.db.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
	if err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("delete game: %w", err)
	}
	return affectedOrNotFound(res)
}

// ListRoster returns every registered player.
func (s *SQLStore) ListRoster(ctx context.Context) ([]model.Player, error) {
	defer observe(time.Now())

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, grade FROM players ORDER BY id")
	if err != nil {
		metrics.RecordLedgerError()
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Grade); err != nil {
			metrics.RecordLedgerError()
			return nil, fmt.Errorf("scan player: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordLedgerError()
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return out, nil
}

// GetPlayer returns a single roster entry.
func (s *SQLStore) GetPlayer(ctx context.Context, id string) (model.Player, error) {
	defer observe(time.Now())

	var p model.Player
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, grade FROM players WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.Grade)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordLedgerError()
		return model.Player{}, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

// UpdatePlayer inserts or rewrites a roster entry.
func (s *SQLStore) UpdatePlayer(ctx context.Context, p model.Player) error {
	defer observe(time.Now())

	_, err := s.db.ExecContext(ctx, `INSERT INTO players (id, name, grade)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, grade = excluded.grade`,
		p.ID, p.Name, p.Grade)
	if err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

// ListRatings returns the persisted rating snapshot.
func (s *SQLStore) ListRatings(ctx context.Context) ([]model.RatingState, error) {
	defer observe(time.Now())

	rows, err := s.db.QueryContext(ctx,
		"SELECT player_id, rating, games_counted FROM ratings ORDER BY player_id")
	if err != nil {
		metrics.RecordLedgerError()
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var out []model.RatingState
	for rows.Next() {
		var r model.RatingState
		if err := rows.Scan(&r.PlayerID, &r.Rating, &r.GamesCounted); err != nil {
			metrics.RecordLedgerError()
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordLedgerError()
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return out, nil
}

// SaveRatings replaces the persisted rating snapshot wholesale in one
// transaction.
func (s *SQLStore) SaveRatings(ctx context.Context, states []model.RatingState) error {
	defer observe(time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("save ratings: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM ratings"); err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("save ratings: %w", err)
	}
	for _, r := range states {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ratings (player_id, rating, games_counted) VALUES (?, ?, ?)",
			r.PlayerID, r.Rating, r.GamesCounted); err != nil {
			metrics.RecordLedgerError()
			return fmt.Errorf("save ratings: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordLedgerError()
		return fmt.Errorf("save ratings: %w", err)
	}
	return nil
}

func scanGame(rows *sql.Rows) (model.GameRecord, error) {
	var (
		g            model.GameRecord
		result       string
		gameType     string
		gameDate     string
		recordedAt   string
		verified     int
		ratingChange sql.NullFloat64
	)
	if err := rows.Scan(&g.Seq, &g.ID, &g.Player1ID, &g.Player1Name,
		&g.Player2ID, &g.Player2Name, &result, &gameDate, &gameType,
		&verified, &ratingChange, &g.RecordedBy, &recordedAt,
		&g.Opening, &g.Endgame, &g.Notes); err != nil {
		return model.GameRecord{}, fmt.Errorf("scan game: %w", err)
	}
	g.Result = model.Result(result)
	g.GameType = model.GameType(gameType)
	g.IsVerified = verified != 0
	if ratingChange.Valid {
		v := ratingChange.Float64
		g.RatingChange = &v
	}
	var err error
	if g.GameDate, err = time.Parse(dateLayout, gameDate); err != nil {
		return model.GameRecord{}, fmt.Errorf("parse game date: %w", err)
	}
	if g.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
		return model.GameRecord{}, fmt.Errorf("parse recorded at: %w", err)
	}
	return g, nil
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func observe(start time.Time) {
	metrics.RecordLedgerCallLatency(float64(time.Since(start).Milliseconds()))
}
