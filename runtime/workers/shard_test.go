package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Light-Bearing/tg-poker-planing/mocks"
	"github.com/Light-Bearing/tg-poker-planing/observability"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func runShard(t *testing.T, handler *mocks.MockCommandHandler, timeout time.Duration) (chan Envelope, *observability.MonitoringManager) {
	t.Helper()
	commands := make(chan Envelope, 4)
	monitoring := observability.NewMonitoringManager()
	worker := NewShardWorker(0, commands, handler, monitoring, timeout, logs.GetLoggerFromLevel(slog.LevelDebug))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return commands, monitoring
}

func TestShard_Replies_With_Handler_Result(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockCommandHandler(ctrl)
	cmd := poker.HelpCommand{Room: 1}

	handler.EXPECT().Handle(gomock.Any(), cmd).Return(errors.ErrSessionNotFound)
	commands, _ := runShard(t, handler, time.Second)

	env := NewEnvelope(cmd)
	commands <- env

	req.ErrorIs(<-env.Reply, errors.ErrSessionNotFound)
}

func TestShard_Survives_A_Panicking_Command(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockCommandHandler(ctrl)
	first := poker.HelpCommand{Room: 1}
	second := poker.HelpCommand{Room: 2}

	// Given a handler that panics on the first command only
	gomock.InOrder(
		handler.EXPECT().Handle(gomock.Any(), first).DoAndReturn(func(ctx context.Context, cmd poker.Command) error {
			panic("boom")
		}),
		handler.EXPECT().Handle(gomock.Any(), second).Return(nil),
	)
	commands, monitoring := runShard(t, handler, time.Second)

	// When both commands are sent
	firstEnv, secondEnv := NewEnvelope(first), NewEnvelope(second)
	commands <- firstEnv
	commands <- secondEnv

	// Then only the first one fails and the shard keeps serving
	req.ErrorIs(<-firstEnv.Reply, errors.ErrWorkerPanic)
	req.NoError(<-secondEnv.Reply)
	req.Equal(uint64(1), monitoring.Stats().Panics)
}

func TestShard_Applies_Command_Timeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockCommandHandler(ctrl)
	cmd := poker.HelpCommand{Room: 1}

	handler.EXPECT().Handle(gomock.Any(), cmd).DoAndReturn(func(ctx context.Context, cmd poker.Command) error {
		<-ctx.Done()
		return ctx.Err()
	})
	commands, _ := runShard(t, handler, 20*time.Millisecond)

	env := NewEnvelope(cmd)
	commands <- env

	req.ErrorIs(<-env.Reply, context.DeadlineExceeded)
}
