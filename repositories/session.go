//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/dgraph-io/badger/v4"
)

const gamePrefix = "game:"

// ISessionRepository stores one snapshot per (room, game). Put is an upsert:
// last write wins, no merge. Callers serialize writes per key.
type ISessionRepository interface {
	Get(ctx context.Context, room int64, gameID string) (*poker.Game, error)
	Put(ctx context.Context, game *poker.Game) error
	List(ctx context.Context) ([]*poker.Game, error)
}

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) SessionRepository {
	return SessionRepository{db: db, log: log}
}

// gameKey is formatted as "game:{room_id}:{game_id}". Room ids of group
// chats are negative, the game id is always numeric.
func gameKey(room int64, gameID string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s", gamePrefix, room, gameID))
}

func parseGameKey(key string) (int64, string, error) {
	rest, ok := strings.CutPrefix(key, gamePrefix)
	if !ok {
		return 0, "", fmt.Errorf("unexpected key %q", key)
	}
	roomStr, gameID, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, "", fmt.Errorf("unexpected key %q", key)
	}
	room, err := strconv.ParseInt(roomStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("unexpected key %q: %w", key, err)
	}
	return room, gameID, nil
}

// Get returns errors.ErrSessionNotFound when nothing is stored for the key.
func (s SessionRepository) Get(ctx context.Context, room int64, gameID string) (*poker.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var game *poker.Game
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(room, gameID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			game, err = poker.UnmarshalGame(room, gameID, val)
			return err
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %d:%s", errors.ErrSessionNotFound, room, gameID)
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

// Put persists the JSON snapshot of the game, replacing any previous one.
func (s SessionRepository) Put(ctx context.Context, game *poker.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := game.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("encode game %s: %w", game.Key(), err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gameKey(game.Room, game.ID), data)
	})
}

// List scans every stored game. Entries that fail to decode are logged and
// skipped.
func (s SessionRepository) List(ctx context.Context) ([]*poker.Game, error) {
	var games []*poker.Game
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(gamePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			room, gameID, err := parseGameKey(key)
			if err != nil {
				s.log.Warn("Skipping stored game", "key", key, "error", err)
				continue
			}
			err = item.Value(func(val []byte) error {
				game, err := poker.UnmarshalGame(room, gameID, val)
				if err != nil {
					s.log.Warn("Skipping stored game", "key", key, "error", err)
					return nil
				}
				games = append(games, game)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return games, err
}
