package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/contract"
	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Light-Bearing/tg-poker-planing/observability"
	"github.com/google/uuid"
)

var _ contract.Worker = (*ShardWorker)(nil)

// Envelope carries one command to its shard. Reply is buffered so the
// worker never blocks on a caller that gave up.
type Envelope struct {
	ID    uuid.UUID
	Cmd   poker.Command
	Reply chan error
}

func NewEnvelope(cmd poker.Command) Envelope {
	return Envelope{ID: uuid.New(), Cmd: cmd, Reply: make(chan error, 1)}
}

// ShardWorker is the single writer for every game key hashed to its shard:
// commands are handled one at a time, in arrival order.
type ShardWorker struct {
	index          int
	commands       chan Envelope
	handler        contract.CommandHandler
	monitoring     *observability.MonitoringManager
	commandTimeout time.Duration
	log            *slog.Logger
}

func NewShardWorker(
	index int,
	commands chan Envelope,
	handler contract.CommandHandler,
	monitoring *observability.MonitoringManager,
	commandTimeout time.Duration,
	log *slog.Logger) *ShardWorker {
	return &ShardWorker{
		index:          index,
		commands:       commands,
		handler:        handler,
		monitoring:     monitoring,
		commandTimeout: commandTimeout,
		log:            log.With("shard", index),
	}
}

func (w *ShardWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping shard")
			return ctx.Err()
		case env, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			env.Reply <- w.handle(ctx, env)
		}
	}
}

// handle runs one command. A panic only fails that command, the shard keeps
// serving the next ones.
func (w *ShardWorker) handle(ctx context.Context, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.monitoring.IncrPanics()
			w.log.Error("Command panicked", "envelope", env.ID, "key", env.Cmd.Key().String(), "panic", r)
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()

	if w.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.commandTimeout)
		defer cancel()
	}
	w.log.Debug("Handling command", "envelope", env.ID, "key", env.Cmd.Key().String(), "type", fmt.Sprintf("%T", env.Cmd))
	return w.handler.Handle(ctx, env.Cmd)
}
