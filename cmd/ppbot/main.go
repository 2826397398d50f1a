package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Light-Bearing/tg-poker-planing/infrastructure/storage/sqlite"
	"github.com/Light-Bearing/tg-poker-planing/infrastructure/telegram"
	"github.com/Light-Bearing/tg-poker-planing/infrastructure/webhook"
	"github.com/Light-Bearing/tg-poker-planing/internal/inspect"
	"github.com/Light-Bearing/tg-poker-planing/observability"
	"github.com/Light-Bearing/tg-poker-planing/repositories"
	"github.com/Light-Bearing/tg-poker-planing/runtime"
	"github.com/Light-Bearing/tg-poker-planing/runtime/workers"
	"github.com/Light-Bearing/tg-poker-planing/services"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bot terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal arrives. Deferred
// cleanups (storage first opened, last closed) run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := loadConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	repository, closeStorage, err := openRepository(ctx, config, log)
	if err != nil {
		return exitRuntime, err
	}
	defer closeStorage()

	// 3. Telegram
	bot, err := telegram.NewBotAPI(config.TelegramBotToken, config.TransportTimeout)
	if err != nil {
		return exitRuntime, err
	}
	log.Info("Logged in", "bot", bot.Self.UserName)
	transport := telegram.NewTransport(bot, log)

	// 4. Supervision & Orchestration
	monitoring := observability.NewMonitoringManager()
	service := services.NewPokerService(log, repository, transport, monitoring)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(
		log, sup, service, monitoring,
		config.NumberOfWorkers, config.BufferSize, config.CommandTimeout,
	)
	orchestrator.Add(
		workers.NewHealthMonitoringWorker(log, monitoring, config.MetricInterval),
		workers.NewChannelCapacityWorker(log, orchestrator.Queues(), monitoring, config.MetricInterval, config.LowCapacityPercent),
		workers.NewReporterWorker(log, monitoring, config.ReportInterval),
	)

	// The orchestrator outlives the signal: in-flight webhook requests are
	// drained by the HTTP shutdown before it stops.
	if err := orchestrator.Start(context.Background()); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed to start: %w", err)
	}
	defer orchestrator.Stop()

	// 5. Webhook registration
	if url := config.PublicURL(); url != "" {
		if err := transport.RegisterWebhook(ctx, url, config.DropPendingUpdates); err != nil {
			return exitRuntime, fmt.Errorf("webhook registration failed: %w", err)
		}
	} else {
		log.Warn("WEBHOOK_URL not set, webhook cannot be configured")
	}

	if log.Enabled(ctx, slog.LevelDebug) {
		log.Info("Debug game inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))
		inspect.StartDebugServer(ctx, config.DebugPort, "/inspect", repository, statsProvider(monitoring), log)
	}

	// 6. HTTP server, blocks until the signal
	router := telegram.NewRouter(orchestrator, log)
	server := webhook.NewServer(config.Address(), router, monitoring, log)
	if err := server.Serve(ctx); err != nil {
		return exitRuntime, err
	}

	log.Info("Shutting down gracefully...")
	return exitOK, nil
}

func openRepository(ctx context.Context, config Config, log *slog.Logger) (repositories.ISessionRepository, func(), error) {
	switch config.StorageDriver {
	case driverSqlite:
		store, err := sqlite.Open(ctx, config.SqlitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return store, func() {
			log.Info("Closing SQLite...")
			_ = store.Close()
		}, nil
	default:
		db, err := badger.Open(buildBadgerOpts(config, log, ctx))
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return repositories.NewSessionRepository(db, log), func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}, nil
	}
}

func buildBadgerOpts(config Config, log *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if log.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

func statsProvider(monitoring *observability.MonitoringManager) inspect.StatsProvider {
	return func() map[string]any {
		stats := monitoring.Stats()
		return map[string]any{
			"Uptime":             stats.Uptime,
			"Games started":      stats.GamesStarted,
			"Votes":              stats.Votes,
			"Reveals":            stats.Reveals,
			"Restarts":           stats.Restarts,
			"Rejections":         stats.Rejections,
			"Transport failures": stats.TransportFailures,
			"Panics":             stats.Panics,
			"Goroutines":         stats.Goroutines,
		}
	}
}
