package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Light-Bearing/tg-poker-planing/contract"
	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Light-Bearing/tg-poker-planing/observability"
	"github.com/Light-Bearing/tg-poker-planing/repositories"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultTask           = "No description provided"
	UnknownCommandReply   = "Unknown command. Use /help for instructions."
	answerNoSuchGame      = "No such game"
	answerAlreadyRevealed = "Can't change vote after cards are opened"
	answerNoChanges       = "No changes to apply"
	answerUnknownAction   = "Unknown action"
	answerFailure         = "Error processing request"
)

// Greeting is the /start and /help reply.
var Greeting = fmt.Sprintf(`Use /poker task url or description to start game.

Multiline is also supported:
/poker line1
line2

Available scale: %s`, strings.Join(poker.AvailablePoints, ", "))

var _ contract.CommandHandler = (*PokerService)(nil)

// PokerService runs every game command: load, mutate, persist, then render.
// It is called by the dispatcher, never concurrently for the same game.
type PokerService struct {
	log        *slog.Logger
	repository repositories.ISessionRepository
	transport  contract.Transport
	monitoring *observability.MonitoringManager
	validate   *validator.Validate
}

func NewPokerService(log *slog.Logger, repository repositories.ISessionRepository,
	transport contract.Transport, monitoring *observability.MonitoringManager) *PokerService {
	return &PokerService{
		log:        log,
		repository: repository,
		transport:  transport,
		monitoring: monitoring,
		validate:   validator.New(),
	}
}

// Handle returns the domain rejection (not found, already revealed, not
// authorized, malformed) after the user has been answered, or the storage
// error that aborted the command. Rendering failures are never returned.
func (s *PokerService) Handle(ctx context.Context, cmd poker.Command) error {
	switch c := cmd.(type) {
	case poker.HelpCommand:
		return s.help(ctx, c)
	case poker.UnknownCommand:
		return s.unknown(ctx, c)
	case poker.StartGameCommand:
		return s.startGame(ctx, c)
	case poker.VoteCommand:
		return s.vote(ctx, c)
	case poker.OperationCommand:
		return s.operation(ctx, c)
	case poker.MalformedCallbackCommand:
		return s.malformed(ctx, c)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

func (s *PokerService) help(ctx context.Context, c poker.HelpCommand) error {
	if _, err := s.transport.SendMessage(ctx, c.Room, 0, Greeting, nil); err != nil {
		s.transportFailed("Unable to send help", err, "room", c.Room)
	}
	return nil
}

func (s *PokerService) unknown(ctx context.Context, c poker.UnknownCommand) error {
	s.log.Debug("Unknown command", "room", c.Room, "command", c.Command)
	if _, err := s.transport.SendMessage(ctx, c.Room, 0, UnknownCommandReply, nil); err != nil {
		s.transportFailed("Unable to send unknown command reply", err, "room", c.Room)
	}
	return fmt.Errorf("%w: %s", errors.ErrUnknownCommand, c.Command)
}

func (s *PokerService) startGame(ctx context.Context, c poker.StartGameCommand) error {
	if err := s.validate.Struct(c); err != nil {
		return fmt.Errorf("invalid start command: %w", err)
	}
	gameID := strconv.Itoa(c.MessageID)
	log := s.log.With("room", c.Room, "game", gameID)

	// A redelivered update must not reset a running game.
	if _, err := s.repository.Get(ctx, c.Room, gameID); err == nil {
		log.Debug("Game already started, ignoring")
		return nil
	} else if !stderrors.Is(err, errors.ErrSessionNotFound) {
		return err
	}

	task := c.Text
	if strings.TrimSpace(task) == "" {
		task = DefaultTask
	}
	game := poker.NewGame(c.Room, gameID, c.Initiator, task)
	if err := s.repository.Put(ctx, game); err != nil {
		log.Error("Unable to store new game", "error", err)
		return err
	}
	s.monitoring.IncrGamesStarted()

	messageID, err := s.transport.SendMessage(ctx, c.Room, c.MessageID, game.Text(), game.Keyboard())
	if err != nil {
		s.transportFailed("Unable to post game", err, "room", c.Room, "game", gameID)
		return nil
	}
	game.RenderedMessageID = messageID
	if err := s.repository.Put(ctx, game); err != nil {
		log.Error("Unable to store rendered message id", "error", err)
		return err
	}
	log.Info("Game started", "initiator", c.Initiator.Label())
	return nil
}

func (s *PokerService) vote(ctx context.Context, c poker.VoteCommand) error {
	log := s.log.With("room", c.Room, "game", c.Game)
	game, err := s.load(ctx, c.Room, c.Game, c.CallbackID)
	if err != nil {
		return err
	}

	if err := game.AddVote(c.Voter, c.Point); err != nil {
		s.monitoring.IncrRejections()
		s.answer(ctx, c.CallbackID, answerAlreadyRevealed, true)
		return err
	}
	if err := s.repository.Put(ctx, game); err != nil {
		log.Error("Unable to store vote", "error", err)
		s.answer(ctx, c.CallbackID, answerFailure, true)
		return err
	}
	s.monitoring.IncrVotes()
	log.Debug("Vote accepted", "voter", c.Voter.ParticipantKey())

	s.edit(ctx, game, game.Text(), game.Keyboard())
	s.answer(ctx, c.CallbackID, fmt.Sprintf("Answer %s accepted", c.Point), false)
	return nil
}

func (s *PokerService) operation(ctx context.Context, c poker.OperationCommand) error {
	log := s.log.With("room", c.Room, "game", c.Game, "operation", c.Operation)
	game, err := s.load(ctx, c.Room, c.Game, c.CallbackID)
	if err != nil {
		return err
	}

	if !game.IsInitiator(c.Requester) {
		s.monitoring.IncrRejections()
		s.answer(ctx, c.CallbackID, fmt.Sprintf("%s is available only for initiator", c.Operation), true)
		return fmt.Errorf("%w: %s by %d", errors.ErrNotAuthorized, c.Operation, c.Requester.ID)
	}

	// frozen is what the previous message keeps when the game moves on to a
	// new one: the round before restart, or the results after reveal.
	frozen := game.Text()
	if c.Operation.IsRestart() {
		game.Restart()
		s.monitoring.IncrRestarts()
	} else {
		game.Reveal()
		frozen = game.Text()
		s.monitoring.IncrReveals()
	}
	if err := s.repository.Put(ctx, game); err != nil {
		log.Error("Unable to store operation", "error", err)
		s.answer(ctx, c.CallbackID, answerFailure, true)
		return err
	}

	if !c.Operation.PostsNewMessage() {
		answer := ""
		if !s.edit(ctx, game, game.Text(), game.Keyboard()) {
			answer = answerNoChanges
		}
		s.answer(ctx, c.CallbackID, answer, false)
		log.Info("Operation applied")
		return nil
	}

	s.edit(ctx, game, frozen, nil)
	messageID, err := s.transport.SendMessage(ctx, c.Room, 0, game.Text(), game.Keyboard())
	if err != nil {
		s.transportFailed("Unable to post new game message", err, "room", c.Room, "game", c.Game)
	} else {
		game.RenderedMessageID = messageID
		if err := s.repository.Put(ctx, game); err != nil {
			log.Error("Unable to store rendered message id", "error", err)
			s.answer(ctx, c.CallbackID, answerFailure, true)
			return err
		}
	}
	s.answer(ctx, c.CallbackID, "", false)
	log.Info("Operation applied", "message", game.RenderedMessageID)
	return nil
}

func (s *PokerService) malformed(ctx context.Context, c poker.MalformedCallbackCommand) error {
	s.monitoring.IncrRejections()
	s.log.Warn("Malformed callback", "room", c.Room, "data", c.Data, "error", c.Err)
	s.answer(ctx, c.CallbackID, answerUnknownAction, false)
	if c.Err != nil {
		return c.Err
	}
	return errors.ErrMalformedCallback
}

// load answers "No such game" when nothing is stored for the key.
func (s *PokerService) load(ctx context.Context, room int64, gameID, callbackID string) (*poker.Game, error) {
	game, err := s.repository.Get(ctx, room, gameID)
	if stderrors.Is(err, errors.ErrSessionNotFound) {
		s.monitoring.IncrRejections()
		s.answer(ctx, callbackID, answerNoSuchGame, false)
		return nil, err
	}
	if err != nil {
		s.log.Error("Unable to load game", "room", room, "game", gameID, "error", err)
		s.answer(ctx, callbackID, answerFailure, true)
		return nil, err
	}
	return game, nil
}

// edit re-renders the game message. It reports false when the message
// already showed this content.
func (s *PokerService) edit(ctx context.Context, game *poker.Game, text string, keyboard poker.Keyboard) bool {
	err := s.transport.EditMessage(ctx, game.Room, game.RenderedMessageID, text, keyboard)
	switch {
	case err == nil:
		return true
	case stderrors.Is(err, errors.ErrNotModified):
		return false
	default:
		s.transportFailed("Unable to update game message", err, "room", game.Room, "game", game.ID)
		return true
	}
}

func (s *PokerService) answer(ctx context.Context, callbackID, text string, alert bool) {
	if callbackID == "" {
		return
	}
	if err := s.transport.AnswerCallback(ctx, callbackID, text, alert); err != nil {
		s.transportFailed("Unable to answer callback", err, "callback", callbackID)
	}
}

func (s *PokerService) transportFailed(msg string, err error, args ...any) {
	s.monitoring.IncrTransportFailures()
	s.log.Warn(msg, append(args, "error", err)...)
}
