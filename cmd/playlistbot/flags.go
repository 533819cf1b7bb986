package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/cwygoda/playlistbot/internal/config"
)

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("PLAYLISTBOT_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Telegram bot token",
			Sources: cli.EnvVars("TELEGRAM_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "work-root",
			Usage:   "Directory holding per-user download directories",
			Sources: cli.EnvVars("PLAYLISTBOT_WORK_ROOT"),
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "Job history database path",
			Sources: cli.EnvVars("PLAYLISTBOT_DB_PATH"),
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "HTTP health port (0 disables)",
			Sources: cli.EnvVars("PLAYLISTBOT_HTTP_PORT", "PORT"),
		},
		&cli.DurationFlag{
			Name:    "heartbeat",
			Usage:   "Keep-alive interval",
			Sources: cli.EnvVars("PLAYLISTBOT_HEARTBEAT_INTERVAL"),
		},
		&cli.StringFlag{
			Name:    "ping-url",
			Usage:   "URL requested on every keep-alive",
			Sources: cli.EnvVars("PLAYLISTBOT_PING_URL"),
		},
		&cli.DurationFlag{
			Name:    "upload-timeout",
			Usage:   "Timeout for a single Bot API request, uploads included",
			Sources: cli.EnvVars("PLAYLISTBOT_UPLOAD_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "max-file-size",
			Usage:   "Largest file to upload, e.g. 2GiB",
			Sources: cli.EnvVars("PLAYLISTBOT_MAX_FILE_SIZE"),
		},
		&cli.FloatFlag{
			Name:    "status-rate",
			Usage:   "Status messages per second",
			Sources: cli.EnvVars("PLAYLISTBOT_STATUS_RATE"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "debug, info, warn or error",
			Sources: cli.EnvVars("PLAYLISTBOT_LOG_LEVEL"),
		},
	}
}

// loadConfig resolves defaults, then the config file, then environment and
// flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if err := config.LoadFile(cfg, config.ExpandPath(cmd.String("config"))); err != nil {
		return nil, err
	}

	if cmd.IsSet("token") {
		cfg.Token = cmd.String("token")
	}
	if cmd.IsSet("work-root") {
		cfg.WorkRoot = cmd.String("work-root")
	}
	if cmd.IsSet("db") {
		cfg.DBPath = cmd.String("db")
	}
	if cmd.IsSet("port") {
		cfg.HTTPPort = int(cmd.Int("port"))
	}
	if cmd.IsSet("heartbeat") {
		cfg.HeartbeatInterval = cmd.Duration("heartbeat")
	}
	if cmd.IsSet("ping-url") {
		cfg.PingURL = cmd.String("ping-url")
	}
	if cmd.IsSet("upload-timeout") {
		cfg.UploadTimeout = cmd.Duration("upload-timeout")
	}
	if cmd.IsSet("max-file-size") {
		n, err := humanize.ParseBytes(cmd.String("max-file-size"))
		if err != nil {
			return nil, fmt.Errorf("%w: max-file-size: %v", config.ErrInvalidConfig, err)
		}
		cfg.MaxFileSize = int64(n)
	}
	if cmd.IsSet("status-rate") {
		cfg.StatusRate = cmd.Float("status-rate")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}

	cfg.Normalize()
	cfg.WorkRoot = config.ExpandPath(cfg.WorkRoot)
	cfg.DBPath = config.ExpandPath(cfg.DBPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
