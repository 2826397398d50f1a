package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/contract"
	"github.com/Light-Bearing/tg-poker-planing/observability"
)

var _ contract.Worker = (*ChannelCapacityWorker)(nil)

type NamedQueue struct {
	Name  string
	Queue chan Envelope
}

// ChannelCapacityWorker periodically samples the length and capacity of the
// shard queues. Reading len and cap is non-blocking, so this never
// interferes with the shards. A queue filled above lowCapacityPercent
// is logged as a warning: commands for its games are piling up.
type ChannelCapacityWorker struct {
	log                *slog.Logger
	queues             []NamedQueue
	monitoring         *observability.MonitoringManager
	metricInterval     time.Duration
	lowCapacityPercent int
}

func NewChannelCapacityWorker(log *slog.Logger, queues []NamedQueue,
	monitoring *observability.MonitoringManager,
	metricInterval time.Duration, lowCapacityPercent int) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:                log,
		queues:             queues,
		monitoring:         monitoring,
		metricInterval:     metricInterval,
		lowCapacityPercent: lowCapacityPercent,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping queue sampling")
			return nil
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *ChannelCapacityWorker) sample() {
	for _, nq := range w.queues {
		length, capacity := len(nq.Queue), cap(nq.Queue)
		w.monitoring.RecordQueue(observability.QueueSample{Name: nq.Name, Length: length, Capacity: capacity})
		if capacity > 0 && length*100 >= capacity*w.lowCapacityPercent {
			w.log.Warn("Shard queue almost full", "queue", nq.Name, "length", length, "capacity", capacity)
		}
	}
}
