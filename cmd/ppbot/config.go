package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	driverBadger = "badger"
	driverSqlite = "sqlite"
)

type Config struct {
	TelegramBotToken   string        `env:"TELEGRAM_BOT_TOKEN,required=true" validate:"required"`
	WebhookURL         string        `env:"WEBHOOK_URL" validate:"omitempty,url"`
	RenderExternalURL  string        `env:"RENDER_EXTERNAL_URL" validate:"omitempty,url"`
	Host               string        `env:"HOST,default=0.0.0.0"`
	Port               int           `env:"PORT,default=8000" validate:"gt=0,lte=65535"`
	StorageDriver      string        `env:"STORAGE_DRIVER,default=badger" validate:"oneof=badger sqlite"`
	BadgerFilepath     string        `env:"BADGER_FILEPATH,default=/tmp/tg_pp_bot.badger" validate:"required_if=StorageDriver badger"`
	SqlitePath         string        `env:"PP_BOT_DB_PATH,default=/tmp/tg_pp_bot.db" validate:"required_if=StorageDriver sqlite"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	NumberOfWorkers    int           `env:"NUMBER_OF_WORKERS,default=8" validate:"gte=1"`
	BufferSize         int           `env:"BUFFER_SIZE,default=64" validate:"gte=0"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	CommandTimeout     time.Duration `env:"COMMAND_TIMEOUT,default=15s" validate:"gt=0"`
	TransportTimeout   time.Duration `env:"TRANSPORT_TIMEOUT,default=10s" validate:"gt=0"`
	MetricInterval     time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gt=0"`
	ReportInterval     time.Duration `env:"REPORT_INTERVAL,default=10m" validate:"gt=0"`
	LowCapacityPercent int           `env:"LOW_CAPACITY_PERCENT,default=80" validate:"gt=0,lte=100"`
	DropPendingUpdates bool          `env:"DROP_PENDING_UPDATES,default=true"`
	DebugPort          int           `env:"DEBUG_PORT,default=8081" validate:"gt=0,lte=65535"`
}

// PublicURL is the base the webhook is registered under. The hosting
// platform's URL wins over the manual one.
func (c Config) PublicURL() string {
	if c.RenderExternalURL != "" {
		return c.RenderExternalURL
	}
	return c.WebhookURL
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadConfig reads .env when present, then the environment.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	config.LogLevel = strings.ToUpper(config.LogLevel)
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	return config, nil
}
