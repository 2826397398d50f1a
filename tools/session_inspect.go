package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Light-Bearing/tg-poker-planing/domain/poker"
	"github.com/Light-Bearing/tg-poker-planing/infrastructure/storage/sqlite"
	"github.com/Light-Bearing/tg-poker-planing/internal/inspect"
	"github.com/Light-Bearing/tg-poker-planing/repositories"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Defaults match cmd/ppbot so both read the same store out of the box.
type inspectConfig struct {
	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"badger"`
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"/tmp/tg_pp_bot.badger"`
	SqlitePath     string `envconfig:"PP_BOT_DB_PATH" default:"/tmp/tg_pp_bot.db"`
}

func main() {
	config, err := loadInspectConfig()
	if err != nil {
		log.Fatal("Config error: ", err)
	}

	driver := flag.String("driver", config.StorageDriver, "Storage driver: badger or sqlite")
	dbPath := flag.String("db", "", "Path to the store (defaults to BADGER_FILEPATH or PP_BOT_DB_PATH)")
	room := flag.Int64("room", 0, "Only show games of this room")
	flag.Parse()

	games, err := listGames(*driver, *dbPath, config)
	if err != nil {
		log.Fatal("Error while reading games: ", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Game", "State", "Message", "Votes", "Average", "Task"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	shown := 0
	for _, game := range games {
		if *room != 0 && game.Room != *room {
			continue
		}
		row := inspect.ToRow(game)
		table.Append([]string{
			row.Room,
			row.Game,
			colorState(row.State),
			row.Message,
			row.Votes,
			row.Average,
			strings.ReplaceAll(row.Task, "\n", " ⏎ "),
		})
		shown++
	}
	table.Render()
	fmt.Println(color.Gray.Sprintf("%d games", shown))
}

func loadInspectConfig() (inspectConfig, error) {
	var config inspectConfig
	err := envconfig.Process("", &config)
	return config, err
}

func listGames(driver, path string, config inspectConfig) ([]*poker.Game, error) {
	ctx := context.Background()
	logger := logs.GetLoggerFromString("WARN")

	switch driver {
	case "sqlite":
		if path == "" {
			path = config.SqlitePath
		}
		store, err := sqlite.OpenReadOnly(ctx, path, logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.List(ctx)
	case "badger":
		if path == "" {
			path = config.BadgerFilepath
		}
		opts := badger.DefaultOptions(path).
			WithReadOnly(true).
			WithLogger(nil).
			WithBypassLockGuard(true)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return repositories.NewSessionRepository(db, logger).List(ctx)
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

func colorState(state string) string {
	if state == "REVEALED" {
		return color.Green.Sprint(state)
	}
	return color.Yellow.Sprint(state)
}
