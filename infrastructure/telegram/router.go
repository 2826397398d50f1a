package telegram

import (
	"context"
	stderrors "errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Light-Bearing/tg-poker-planing/callback"
	"github.com/Light-Bearing/tg-poker-planing/contract"
	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	// The latin aliases cover users typing /poker or /p on a Cyrillic layout
	// and the other way round.
	pokerCommand = regexp.MustCompile(`(?s)^/(?:poker|p|покер|п|зщлук|з|gjrth|g)(?:@\w+)?(?:\s+(.*))?$`)
	helpCommand  = regexp.MustCompile(`^/(?:start|help)(?:@\w+)?(?:\s|$)`)
)

// Router turns webhook updates into game commands and dispatches them.
type Router struct {
	dispatcher contract.IDispatcher
	log        *slog.Logger
}

func NewRouter(dispatcher contract.IDispatcher, log *slog.Logger) *Router {
	return &Router{dispatcher: dispatcher, log: log}
}

// Route returns the dispatch error. Updates carrying nothing for the bot
// are ignored.
func (r *Router) Route(ctx context.Context, update tgbotapi.Update) error {
	cmd := ToCommand(update)
	if cmd == nil {
		r.log.Debug("Ignoring update", "update", update.UpdateID)
		return nil
	}
	err := r.dispatcher.Dispatch(ctx, cmd)
	switch {
	case err == nil:
	case errors.IsRejection(err):
		r.log.Debug("Command rejected", "update", update.UpdateID, "key", cmd.Key().String(), "error", err)
	case stderrors.Is(err, errors.ErrWorkerPanic):
		r.log.Error("Command crashed", "update", update.UpdateID, "key", cmd.Key().String(), "error", err)
	default:
		r.log.Error("Command failed", "update", update.UpdateID, "key", cmd.Key().String(), "error", err)
	}
	return err
}

// ToCommand maps an update to a command, or nil when the bot has nothing
// to do with it.
func ToCommand(update tgbotapi.Update) poker.Command {
	switch {
	case update.CallbackQuery != nil:
		return fromCallback(update.CallbackQuery)
	case update.Message != nil:
		return fromMessage(update.Message)
	default:
		return nil
	}
}

func fromMessage(msg *tgbotapi.Message) poker.Command {
	if msg.Chat == nil || !strings.HasPrefix(msg.Text, "/") {
		return nil
	}
	room := msg.Chat.ID
	if helpCommand.MatchString(msg.Text) {
		return poker.HelpCommand{Room: room}
	}
	if match := pokerCommand.FindStringSubmatch(msg.Text); match != nil {
		return poker.StartGameCommand{
			Room:      room,
			MessageID: msg.MessageID,
			Initiator: toUser(msg.From),
			Text:      strings.TrimSpace(match[1]),
		}
	}
	// Group chats see every command of every bot.
	if msg.Chat.IsPrivate() {
		name, _, _ := strings.Cut(msg.Text, " ")
		return poker.UnknownCommand{Room: room, Command: name}
	}
	return nil
}

func fromCallback(cq *tgbotapi.CallbackQuery) poker.Command {
	// Buttons of inline-mode messages carry no chat.
	if cq.Message == nil || cq.Message.Chat == nil {
		return nil
	}
	room := cq.Message.Chat.ID
	action, err := poker.Codec.Decode(cq.Data)
	if err != nil {
		return poker.MalformedCallbackCommand{Room: room, CallbackID: cq.ID, Data: cq.Data, Err: err}
	}
	switch a := action.(type) {
	case callback.VoteAction:
		return poker.VoteCommand{Room: room, Game: a.Game, CallbackID: cq.ID, Voter: toUser(cq.From), Point: a.Point}
	case callback.ControlAction:
		return poker.OperationCommand{Room: room, Game: a.Game, CallbackID: cq.ID, Requester: toUser(cq.From), Operation: a.Operation}
	default:
		return poker.MalformedCallbackCommand{Room: room, CallbackID: cq.ID, Data: cq.Data, Err: errors.ErrMalformedCallback}
	}
}

func toUser(u *tgbotapi.User) poker.User {
	if u == nil {
		return poker.User{}
	}
	return poker.User{ID: u.ID, DisplayName: u.FirstName, Handle: u.UserName}
}
