package telegram

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Light-Bearing/tg-poker-planing/callback"
	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Light-Bearing/tg-poker-planing/mocks"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var sender = &tgbotapi.User{ID: 7, FirstName: "Alice", UserName: "alice"}

func messageUpdate(chatType, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 42,
			From:      sender,
			Chat:      &tgbotapi.Chat{ID: -1001, Type: chatType},
			Text:      text,
		},
	}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    sender,
			Message: &tgbotapi.Message{MessageID: 43, Chat: &tgbotapi.Chat{ID: -1001, Type: "group"}},
			Data:    data,
		},
	}
}

func TestToCommand_Start_Game(t *testing.T) {
	initiator := poker.User{ID: 7, DisplayName: "Alice", Handle: "alice"}

	tests := []struct {
		description string
		text        string
		task        string
	}{
		{"Should parse /poker with a task", "/poker Estimate login", "Estimate login"},
		{"Should parse the short alias", "/p JIRA-12", "JIRA-12"},
		{"Should parse the russian alias", "/покер задача", "задача"},
		{"Should parse the russian short alias", "/п задача", "задача"},
		{"Should parse the wrong layout alias", "/зщлук task", "task"},
		{"Should parse the latin wrong layout alias", "/gjrth задача", "задача"},
		{"Should parse the short wrong layout aliases", "/g task", "task"},
		{"Should parse the cyrillic short wrong layout alias", "/з task", "task"},
		{"Should keep multiline tasks", "/poker line1\nline2", "line1\nline2"},
		{"Should accept a task on the next line", "/poker\nline1", "line1"},
		{"Should accept a bot mention", "/poker@PokerBot task", "task"},
		{"Should leave an empty task to the service", "/poker", ""},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			cmd := ToCommand(messageUpdate("group", tt.text))
			require.Equal(t, poker.StartGameCommand{Room: -1001, MessageID: 42, Initiator: initiator, Text: tt.task}, cmd)
		})
	}
}

func TestToCommand_Help_And_Unknown(t *testing.T) {
	req := require.New(t)

	req.Equal(poker.HelpCommand{Room: -1001}, ToCommand(messageUpdate("group", "/start")))
	req.Equal(poker.HelpCommand{Room: -1001}, ToCommand(messageUpdate("group", "/help@PokerBot")))
	req.Equal(poker.UnknownCommand{Room: -1001, Command: "/pokerface"}, ToCommand(messageUpdate("private", "/pokerface now")))

	// Then unknown commands and plain text are ignored in groups
	req.Nil(ToCommand(messageUpdate("group", "/pokerface")))
	req.Nil(ToCommand(messageUpdate("private", "hello")))
	req.Nil(ToCommand(tgbotapi.Update{UpdateID: 3}))
}

func TestToCommand_Callbacks(t *testing.T) {
	req := require.New(t)
	user := poker.User{ID: 7, DisplayName: "Alice", Handle: "alice"}

	req.Equal(
		poker.VoteCommand{Room: -1001, Game: "42", CallbackID: "cb", Voter: user, Point: "❔"},
		ToCommand(callbackUpdate("vote-click-42-❔")),
	)
	req.Equal(
		poker.OperationCommand{Room: -1001, Game: "42", CallbackID: "cb", Requester: user, Operation: callback.OpRevealNew},
		ToCommand(callbackUpdate("reveal-new-click-42")),
	)

	malformed, ok := ToCommand(callbackUpdate("garbage")).(poker.MalformedCallbackCommand)
	req.True(ok)
	req.Equal("cb", malformed.CallbackID)
	req.ErrorIs(malformed.Err, errors.ErrMalformedCallback)
}

func TestRouter_Dispatches_Commands(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockIDispatcher(ctrl)
	router := NewRouter(dispatcher, logs.GetLoggerFromLevel(slog.LevelDebug))

	dispatcher.EXPECT().Dispatch(gomock.Any(), poker.HelpCommand{Room: -1001}).Return(nil)
	dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.AssignableToTypeOf(poker.VoteCommand{})).Return(errors.ErrAlreadyRevealed)

	req.NoError(router.Route(context.Background(), messageUpdate("group", "/help")))
	req.ErrorIs(router.Route(context.Background(), callbackUpdate("vote-click-42-5")), errors.ErrAlreadyRevealed)

	// Then ignored updates never reach the dispatcher
	req.NoError(router.Route(context.Background(), messageUpdate("group", "just chatting")))
}
