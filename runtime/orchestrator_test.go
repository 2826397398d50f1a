package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Light-Bearing/tg-poker-planing/infrastructure/storage/sqlite"
	"github.com/Light-Bearing/tg-poker-planing/mocks"
	"github.com/Light-Bearing/tg-poker-planing/observability"
	"github.com/Light-Bearing/tg-poker-planing/repositories"
	"github.com/Light-Bearing/tg-poker-planing/runtime/workers"
	"github.com/Light-Bearing/tg-poker-planing/services"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const room = int64(-1001)

var alice = poker.User{ID: 1, DisplayName: "Alice", Handle: "alice"}

func startOrchestrator(t *testing.T, handler *services.PokerService, monitoring *observability.MonitoringManager, numWorkers int) *Orchestrator {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), handler, monitoring, numWorkers, 16, time.Second)
	require.NoError(t, orchestrator.Start(context.Background()))
	t.Cleanup(orchestrator.Stop)
	return orchestrator
}

func silentTransport(t *testing.T) *mocks.MockTransport {
	transport := mocks.NewMockTransport(gomock.NewController(t))
	transport.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(43, nil).AnyTimes()
	transport.EXPECT().EditMessage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	transport.EXPECT().AnswerCallback(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return transport
}

func openBadger(t *testing.T) repositories.ISessionRepository {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repositories.NewSessionRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func openSqlite(t *testing.T) repositories.ISessionRepository {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "games.db"), logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOrchestrator_Concurrent_Votes_All_Survive(t *testing.T) {
	stores := map[string]func(t *testing.T) repositories.ISessionRepository{
		"badger": openBadger,
		"sqlite": openSqlite,
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			ctx := context.Background()
			repository := open(t)
			monitoring := observability.NewMonitoringManager()
			service := services.NewPokerService(logs.GetLoggerFromLevel(slog.LevelDebug), repository, silentTransport(t), monitoring)
			orchestrator := startOrchestrator(t, service, monitoring, 4)

			// Given a started game
			req.NoError(orchestrator.Dispatch(ctx, poker.StartGameCommand{Room: room, MessageID: 42, Initiator: alice, Text: "task"}))

			// When many participants vote at the same time
			const voters = 20
			var wg sync.WaitGroup
			errs := make(chan error, voters)
			for i := 0; i < voters; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					voter := poker.User{ID: int64(100 + i), DisplayName: fmt.Sprintf("Voter %d", i)}
					errs <- orchestrator.Dispatch(ctx, poker.VoteCommand{
						Room: room, Game: "42", CallbackID: fmt.Sprintf("cb-%d", i), Voter: voter, Point: "5",
					})
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				req.NoError(err)
			}

			// Then no vote was lost
			game, err := repository.Get(ctx, room, "42")
			req.NoError(err)
			req.Len(game.Votes(), voters)
			req.Equal(43, game.RenderedMessageID)
			req.Equal(uint64(voters), monitoring.Stats().Votes)
		})
	}
}

func TestOrchestrator_Returns_Handler_Errors(t *testing.T) {
	monitoring := observability.NewMonitoringManager()
	service := services.NewPokerService(logs.GetLoggerFromLevel(slog.LevelDebug), openBadger(t), silentTransport(t), monitoring)
	orchestrator := startOrchestrator(t, service, monitoring, 2)

	err := orchestrator.Dispatch(context.Background(), poker.VoteCommand{Room: room, Game: "404", CallbackID: "cb", Voter: alice, Point: "5"})

	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestOrchestrator_Dispatch_After_Stop(t *testing.T) {
	monitoring := observability.NewMonitoringManager()
	service := services.NewPokerService(logs.GetLoggerFromLevel(slog.LevelDebug), openBadger(t), silentTransport(t), monitoring)
	orchestrator := startOrchestrator(t, service, monitoring, 1)

	orchestrator.Stop()
	err := orchestrator.Dispatch(context.Background(), poker.HelpCommand{Room: room})

	require.ErrorIs(t, err, errors.ErrOrchestratorStopped)
}

func TestOrchestrator_Same_Key_Same_Shard(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 0), nil, observability.NewMonitoringManager(), 8, 1, time.Second)

	key := poker.GameKey{Room: room, Game: "42"}
	first := orchestrator.shardOf(key)
	for i := 0; i < 10; i++ {
		req.Equal(first, orchestrator.shardOf(key))
	}
	req.Less(first, 8)
}

func TestOrchestrator_Stop_Right_After_Start(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)

	for i := 0; i < 50; i++ {
		// Given an orchestrator whose supervisor may not be running yet
		orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), nil, observability.NewMonitoringManager(), 2, 1, time.Second)
		req.NoError(orchestrator.Start(context.Background()))

		// When it is stopped immediately
		stopped := make(chan struct{})
		go func() {
			orchestrator.Stop()
			close(stopped)
		}()

		// Then Stop returns
		select {
		case <-stopped:
		case <-time.After(500 * time.Millisecond):
			req.FailNow("Stop should return right after Start", "iteration %d", i)
		}
	}
}
