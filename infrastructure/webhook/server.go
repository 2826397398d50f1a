// Package webhook serves the HTTP endpoints Telegram and the hosting
// platform call: the update webhook, the health check and the info page.
package webhook

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/infrastructure/telegram"
	"github.com/Light-Bearing/tg-poker-planing/observability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	ServiceName     = "planning-poker-bot"
	maxUpdateBytes  = 1 << 20
	shutdownTimeout = 10 * time.Second
)

type UpdateRouter interface {
	Route(ctx context.Context, update tgbotapi.Update) error
}

type Info struct {
	Status  string                        `json:"status"`
	Service string                        `json:"service"`
	Stats   observability.MonitoringStats `json:"stats"`
}

type Server struct {
	router     UpdateRouter
	monitoring *observability.MonitoringManager
	log        *slog.Logger
	httpServer *http.Server
}

func NewServer(addr string, router UpdateRouter, monitoring *observability.MonitoringManager, log *slog.Logger) *Server {
	s := &Server{router: router, monitoring: monitoring, log: log}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+telegram.WebhookPath, s.handleUpdate)
	mux.HandleFunc("GET /healthcheck", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleInfo)
	return mux
}

// Serve listens until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.log.Info("HTTP server listening", "addr", listener.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP: %w", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

// handleUpdate acknowledges every decodable update with 200, whatever the
// outcome of the command, so Telegram never redelivers it in a loop.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		s.log.Warn("Undecodable update", "error", err)
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	_ = s.router.Route(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	info := Info{Status: "running", Service: ServiceName, Stats: s.monitoring.Stats()}
	if err := json.NewEncoder(w).Encode(info); err != nil {
		s.log.Warn("Unable to write info", "error", err)
	}
}
