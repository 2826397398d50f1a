package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/contract"
	"github.com/Light-Bearing/tg-poker-planing/observability"
)

var _ contract.Worker = (*ReporterWorker)(nil)

// ReporterWorker logs a one-line summary of the counters every interval,
// for deployments where only the logs are visible.
type ReporterWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewReporterWorker(log *slog.Logger, monitoring *observability.MonitoringManager, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, monitoring: monitoring, interval: interval}
}

// Run reports until the context is canceled, then reports one last time.
func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *ReporterWorker) report() {
	stats := w.monitoring.Stats()
	w.log.Info("📊 Stats",
		"uptime", stats.Uptime,
		"games", stats.GamesStarted,
		"votes", stats.Votes,
		"reveals", stats.Reveals,
		"restarts", stats.Restarts,
		"rejections", stats.Rejections,
		"transport_failures", stats.TransportFailures,
		"panics", stats.Panics,
		"ram_mb", stats.AllocMemMb,
	)
}
