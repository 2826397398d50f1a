// Package runtime routes commands to their shard and keeps the shard workers
// alive. It holds no game rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/contract"
	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Light-Bearing/tg-poker-planing/observability"
	"github.com/Light-Bearing/tg-poker-planing/runtime/workers"
	"github.com/cespare/xxhash/v2"
)

var _ contract.IDispatcher = (*Orchestrator)(nil)

// Orchestrator hashes each command's game key onto one of numWorkers shards.
// Every key always lands on the same shard, so commands for one game are
// serialized while different games progress in parallel.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	handler        contract.CommandHandler
	monitoring     *observability.MonitoringManager
	shards         []chan workers.Envelope
	extraWorkers   []contract.Worker
	commandTimeout time.Duration
	cancel         context.CancelFunc
	started        bool
	stopped        chan struct{}
	done           chan struct{}
	stopOnce       sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	handler contract.CommandHandler, monitoring *observability.MonitoringManager,
	numWorkers, bufferSize int, commandTimeout time.Duration) *Orchestrator {
	if numWorkers < 1 {
		numWorkers = 1
	}
	shards := make([]chan workers.Envelope, numWorkers)
	for i := range shards {
		shards[i] = make(chan workers.Envelope, bufferSize)
	}
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		handler:        handler,
		monitoring:     monitoring,
		shards:         shards,
		commandTimeout: commandTimeout,
		stopped:        make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Add registers workers supervised next to the shards, e.g. the health
// monitoring worker. Must be called before Start.
func (o *Orchestrator) Add(worker ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extraWorkers = append(o.extraWorkers, worker...)
}

// Start registers the shard workers and runs the supervisor in the
// background. It returns immediately.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already started")
	}
	o.started = true
	ctx, o.cancel = context.WithCancel(ctx)
	for i, shard := range o.shards {
		o.supervisor.Add(workers.NewShardWorker(i, shard, o.handler, o.monitoring, o.commandTimeout, o.log))
	}
	o.supervisor.Add(o.extraWorkers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "shards", len(o.shards))
	go func() {
		defer close(o.done)
		o.supervisor.Run(ctx)
		o.markStopped()
	}()
	return nil
}

// Stop cancels the workers and waits until they have all returned.
// Commands dispatched afterwards fail with errors.ErrOrchestratorStopped.
func (o *Orchestrator) Stop() {
	o.markStopped()

	o.mu.Lock()
	started, cancel := o.started, o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	o.supervisor.Stop()
	if started {
		<-o.done
	}
	o.log.Info("Orchestrator stopped")
}

// Queues names the shard channels for the capacity worker.
func (o *Orchestrator) Queues() []workers.NamedQueue {
	queues := make([]workers.NamedQueue, len(o.shards))
	for i, shard := range o.shards {
		queues[i] = workers.NamedQueue{Name: fmt.Sprintf("shard-%d", i), Queue: shard}
	}
	return queues
}

func (o *Orchestrator) markStopped() {
	o.stopOnce.Do(func() { close(o.stopped) })
}

// Dispatch hands the command to its shard and waits for the handler's result.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd poker.Command) error {
	select {
	case <-o.stopped:
		return errors.ErrOrchestratorStopped
	default:
	}

	env := workers.NewEnvelope(cmd)
	shard := o.shards[o.shardOf(cmd.Key())]

	select {
	case shard <- env:
	case <-ctx.Done():
		return ctx.Err()
	case <-o.stopped:
		return errors.ErrOrchestratorStopped
	}

	select {
	case err := <-env.Reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-o.stopped:
		return errors.ErrOrchestratorStopped
	}
}

func (o *Orchestrator) shardOf(key poker.GameKey) int {
	return int(xxhash.Sum64String(key.String()) % uint64(len(o.shards)))
}
