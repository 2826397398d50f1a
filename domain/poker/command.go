package poker

import (
	"fmt"
	"strconv"

	"github.com/Light-Bearing/tg-poker-planing/callback"
)

// GameKey is the composite identity of a game: the chat and the game id.
type GameKey struct {
	Room int64
	Game string
}

func (k GameKey) String() string {
	return fmt.Sprintf("%d:%s", k.Room, k.Game)
}

// Command is anything that targets one game. Commands sharing a key are
// handled one at a time.
type Command interface {
	Key() GameKey
}

type HelpCommand struct {
	Room int64
}

func (h HelpCommand) Key() GameKey {
	return GameKey{Room: h.Room}
}

type UnknownCommand struct {
	Room    int64
	Command string
}

func (u UnknownCommand) Key() GameKey {
	return GameKey{Room: u.Room}
}

type StartGameCommand struct {
	Room      int64 `validate:"required"`
	MessageID int   `validate:"required,gt=0"`
	Initiator User
	Text      string
}

func (s StartGameCommand) Key() GameKey {
	return GameKey{Room: s.Room, Game: strconv.Itoa(s.MessageID)}
}

type VoteCommand struct {
	Room       int64
	Game       string
	CallbackID string
	Voter      User
	Point      string
}

func (v VoteCommand) Key() GameKey {
	return GameKey{Room: v.Room, Game: v.Game}
}

type OperationCommand struct {
	Room       int64
	Game       string
	CallbackID string
	Requester  User
	Operation  callback.Operation
}

func (o OperationCommand) Key() GameKey {
	return GameKey{Room: o.Room, Game: o.Game}
}

// MalformedCallbackCommand carries a button payload that failed to decode,
// so the click can still be acknowledged.
type MalformedCallbackCommand struct {
	Room       int64
	CallbackID string
	Data       string
	Err        error
}

func (m MalformedCallbackCommand) Key() GameKey {
	return GameKey{Room: m.Room}
}
