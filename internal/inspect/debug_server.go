// Package inspect serves a read-only HTML view of the stored games, for
// debugging a running bot.
package inspect

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/samber/lo"
)

//go:embed inspect.html
var templatesFS embed.FS

var tmpl = template.Must(template.ParseFS(templatesFS, "inspect.html"))

type GameLister interface {
	List(ctx context.Context) ([]*poker.Game, error)
}

type StatsProvider func() map[string]any

type InspectRow struct {
	Room    string
	Game    string
	State   string
	Message string
	Votes   string
	Average string
	Task    string
}

type PageData struct {
	Room  string
	Items []InspectRow
	Stats map[string]any
	Error string
}

// Handler lists every stored game, optionally filtered by ?room=<id>.
func Handler(lister GameLister, stats StatsProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		room := r.URL.Query().Get("room")
		data := PageData{Room: room, Stats: map[string]any{}}
		if stats != nil {
			data.Stats = stats()
		}

		games, err := lister.List(r.Context())
		if err != nil {
			data.Error = err.Error()
		}
		if room != "" {
			games = lo.Filter(games, func(g *poker.Game, _ int) bool {
				return strconv.FormatInt(g.Room, 10) == room
			})
		}
		data.Items = lo.Map(games, func(g *poker.Game, _ int) InspectRow { return ToRow(g) })

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
}

// ToRow shows the real points: the viewer is for operators, not players.
func ToRow(g *poker.Game) InspectRow {
	state := "VOTING"
	if g.Revealed() {
		state = "REVEALED"
	}
	votes := lo.Map(g.ParticipantKeys(), func(key string, _ int) string {
		vote, _ := g.Vote(key)
		return fmt.Sprintf("%s=%s(r%d)", key, vote.Point, vote.Revision)
	})
	return InspectRow{
		Room:    strconv.FormatInt(g.Room, 10),
		Game:    g.ID,
		State:   state,
		Message: strconv.Itoa(g.RenderedMessageID),
		Votes:   strings.Join(votes, " "),
		Average: strconv.FormatFloat(g.Average(), 'f', 2, 64),
		Task:    g.Task,
	}
}

// StartDebugServer serves Handler on port until ctx ends.
func StartDebugServer(ctx context.Context, port int, endpoint string, lister GameLister, stats StatsProvider, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET "+endpoint, Handler(lister, stats))
	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
