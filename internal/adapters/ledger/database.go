package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/pressly/goose/v3"

	"github.com/okian/shatranj/pkg/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Connection pool limits. SQLite serializes writers anyway, so the pool
// stays small.
const (
	dbMaxOpenConns    = 4
	dbMaxIdleConns    = 2
	dbConnMaxLifetime = time.Hour
)

// OpenDB opens (or creates) the SQLite ledger database, applies pragmas,
// and runs pending migrations.
func OpenDB(ctx context.Context, path string, log logger.Logger) (*sql.DB, error) {
	log.Info(ctx, "opening ledger database", logger.String("path", path))

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	if err := applyPragmas(ctx, db, log); err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	log.Info(ctx, "ledger database ready")
	return db, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, log logger.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set PRAGMA %s: %w", p.name, err)
		}
		log.Debug(ctx, "sqlite pragma set", logger.String("pragma", p.name), logger.String("value", p.value))
	}
	return nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
