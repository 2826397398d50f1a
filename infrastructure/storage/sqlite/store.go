// Package sqlite provides a SQLite-backed game store with the same table
// layout as the original bot: one row per (room_id, session_id).
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Light-Bearing/tg-poker-planing/infrastructure/storage/sqlite/migrations"
	"github.com/Light-Bearing/tg-poker-planing/infrastructure/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store persists game snapshots in SQLite.
type Store struct {
	sqlDB *sql.DB
	log   *slog.Logger
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, log: log}, nil
}

// OpenReadOnly opens an existing database without migrating it. Writes
// through the returned store fail.
func OpenReadOnly(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?mode=ro&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{sqlDB: sqlDB, log: log}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get returns errors.ErrSessionNotFound when no row matches.
func (s *Store) Get(ctx context.Context, room int64, gameID string) (*poker.Game, error) {
	var data string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT json_snapshot FROM games WHERE room_id = ? AND session_id = ?`,
		room, gameID,
	).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d:%s", errors.ErrSessionNotFound, room, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("get game %d:%s: %w", room, gameID, err)
	}
	return poker.UnmarshalGame(room, gameID, []byte(data))
}

// Put replaces the stored row of the game.
func (s *Store) Put(ctx context.Context, game *poker.Game) error {
	data, err := game.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("encode game %s: %w", game.Key(), err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO games (room_id, session_id, json_snapshot) VALUES (?, ?, ?)`,
		game.Room, game.ID, string(data),
	)
	if err != nil {
		return fmt.Errorf("put game %s: %w", game.Key(), err)
	}
	return nil
}

// List returns every stored game ordered by key. Rows that fail to decode
// are logged and skipped.
func (s *Store) List(ctx context.Context) ([]*poker.Game, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT room_id, session_id, json_snapshot FROM games ORDER BY room_id, session_id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*poker.Game
	for rows.Next() {
		var (
			room   int64
			gameID string
			data   string
		)
		if err := rows.Scan(&room, &gameID, &data); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		game, err := poker.UnmarshalGame(room, gameID, []byte(data))
		if err != nil {
			s.log.Warn("Skipping stored game", "room", room, "game", gameID, "error", err)
			continue
		}
		games = append(games, game)
	}
	return games, rows.Err()
}
