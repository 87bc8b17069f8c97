package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mocamara/se-atlas/internal/api"
	"github.com/mocamara/se-atlas/internal/auth"
	"github.com/mocamara/se-atlas/internal/cache"
	"github.com/mocamara/se-atlas/internal/cache/rediscache"
	"github.com/mocamara/se-atlas/internal/core/config"
	"github.com/mocamara/se-atlas/internal/core/httpclient"
	"github.com/mocamara/se-atlas/internal/core/observability"
	"github.com/mocamara/se-atlas/internal/core/server"
	"github.com/mocamara/se-atlas/internal/dataset"
	"github.com/mocamara/se-atlas/internal/invalidation/kafkaconsumer"
	"github.com/mocamara/se-atlas/internal/logger"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "se-atlas",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting se-atlas",
		"addr", cfg.Addr,
		"version", Version,
		"boundaries", cfg.BoundariesURL,
		"concessions", cfg.ConcessionsURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var remote cache.Interface
	if cfg.RedisEnabled {
		rc, err := rediscache.New(ctx, cfg.RedisAddr, rediscache.WithOpTimeout(cfg.CacheOpTimeout))
		if err != nil {
			appLog.Warn("redis unavailable; snapshot cache is memory-only", "err", err)
		} else {
			remote = rc
			defer func() { _ = rc.Close() }()
		}
	}

	loader := dataset.NewLoader(appLog, httpclient.NewOutbound())
	snaps, err := dataset.NewSnapshots(appLog, loader, remote, cfg.CacheTTL, cfg.MemSnapshots)
	if err != nil {
		appLog.Error("snapshot store setup failed", "err", err)
		return 1
	}

	creds := auth.DefaultCredentials()
	if cfg.UsersFile != "" {
		creds, err = auth.LoadCredentials(cfg.UsersFile)
		if err != nil {
			appLog.Error("credential table load failed", "err", err)
			return 1
		}
	}

	sessions := auth.NewSessionStore(cfg.SessionTTL)
	handlers := api.New(appLog, cfg, snaps, sessions, creds)

	// Warm both snapshots so /readyz goes green without waiting for the
	// first interaction. Failure is logged, not fatal: the next request
	// retries the load.
	if _, err := snaps.Boundaries(ctx, cfg.BoundariesURL); err != nil {
		appLog.Error("initial boundary load failed", "err", err)
	}
	if _, err := snaps.Concessions(ctx, cfg.ConcessionsURL); err != nil {
		appLog.Error("initial concession load failed", "err", err)
	}

	if cfg.Invalidation.Enabled {
		kc := kafkaconsumer.New(
			kafkaconsumer.DefaultConfig(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID),
			appLog,
			snaps,
			func(ctx context.Context, kind string) error {
				var err error
				switch kind {
				case dataset.Boundaries:
					_, err = snaps.Boundaries(ctx, cfg.BoundariesURL)
				case dataset.Concessions:
					_, err = snaps.Concessions(ctx, cfg.ConcessionsURL)
				}
				return err
			},
		)
		go func() {
			if err := kc.Start(ctx); err != nil {
				appLog.Error("invalidation consumer exited", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, handlers.Routes()); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
