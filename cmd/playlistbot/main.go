package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/cwygoda/playlistbot/internal/adapter/http"
	"github.com/cwygoda/playlistbot/internal/adapter/memory"
	"github.com/cwygoda/playlistbot/internal/adapter/sqlite"
	"github.com/cwygoda/playlistbot/internal/adapter/telegram"
	"github.com/cwygoda/playlistbot/internal/adapter/ytdlp"
	"github.com/cwygoda/playlistbot/internal/config"
	"github.com/cwygoda/playlistbot/internal/domain"
	"github.com/cwygoda/playlistbot/internal/logging"
	"github.com/cwygoda/playlistbot/internal/workdir"
	"github.com/cwygoda/playlistbot/internal/worker"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.Command{
		Name:    "playlistbot",
		Usage:   "Copy video playlists into Telegram channels",
		Version: version,
		Flags:   flags(),
		Action:  serve,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			fmt.Fprintln(os.Stderr, "error: set TELEGRAM_BOT_TOKEN (or token in the config file) to the token issued by @BotFather")
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	logger.Info("starting playlistbot", "version", version, "db", cfg.DBPath, "work_root", cfg.WorkRoot)

	repo, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open job history: %w", err)
	}
	defer repo.Close()

	// Jobs left running by a previous process can never finish.
	if n, err := repo.RecoverStale(ctx); err != nil {
		logger.Warn("recover stale jobs", "err", err)
	} else if n > 0 {
		logger.Info("marked stale jobs interrupted", "count", n)
	}

	workspace := workdir.NewManager(cfg.WorkRoot)
	if n, err := workspace.Sweep(); err != nil {
		logger.Warn("sweep work root", "err", err)
	} else if n > 0 {
		logger.Info("removed stray download directories", "count", n)
	}

	registry, err := ytdlp.NewRegistryFromConfig(cfg.Extractors, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	api, err := telegram.NewBotAPI(cfg.Token, cfg.UploadTimeout)
	if err != nil {
		return err
	}
	logger.Info("authorized", "bot", api.Self.UserName)

	client := telegram.NewClient(api, cfg.StatusRate)
	machine := domain.NewMachine(memory.NewStore(), registry)
	pipeline := domain.NewPipeline(domain.PipelineConfig{
		Extractors:  registry,
		Transfer:    client,
		Notifier:    client,
		Jobs:        repo,
		Workspace:   workspace,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      logger,
	})
	runner := worker.NewRunner(pipeline, machine.Release, logger)
	poller := telegram.NewPoller(api, machine, runner, client, logger)
	heartbeat := worker.NewHeartbeat(cfg.HeartbeatInterval, cfg.PingURL, runner.Active, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return poller.Run(gctx)
	})
	g.Go(func() error { return heartbeat.Run(gctx) })
	if cfg.HTTPPort > 0 {
		srv := httpAdapter.NewServer(repo, runner.Active, fmt.Sprintf(":%d", cfg.HTTPPort), logger)
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", srv.Addr())
			return srv.ListenAndServe()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("waiting for running jobs", "active", runner.Active())
	runner.Wait()
	logger.Info("shutdown complete")
	return err
}
