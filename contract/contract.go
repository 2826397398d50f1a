//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Transport is everything the game needs from the chat platform.
// A nil keyboard removes the buttons of the message.
// EditMessage returns errors.ErrNotModified when the message already shows
// the same content.
type Transport interface {
	SendMessage(ctx context.Context, room int64, replyTo int, text string, keyboard poker.Keyboard) (int, error)
	EditMessage(ctx context.Context, room int64, messageID int, text string, keyboard poker.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// CommandHandler executes one command. It is only ever called by the
// dispatcher, one command per game key at a time.
type CommandHandler interface {
	Handle(ctx context.Context, cmd poker.Command) error
}

type IDispatcher interface {
	Dispatch(ctx context.Context, cmd poker.Command) error
}
