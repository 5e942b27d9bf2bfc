package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mahdiidarabi/wallet-signature-verify/internal/config"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/metrics"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/replay"
	"github.com/mahdiidarabi/wallet-signature-verify/internal/server"
	"github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the verification HTTP API",
		Description: `Serves POST /api/v1/verify, GET /api/v1/wallets, GET /health and
GET /metrics. Settings come from WALLETVERIFY_* environment variables;
flags override them.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default :8080)",
			},
			&cli.StringFlag{
				Name:  "replay-backend",
				Usage: "Replay protection: none, memory or redis",
			},
			&cli.StringFlag{
				Name:  "redis-url",
				Usage: "Redis URL for the redis replay backend",
			},
			&cli.DurationFlag{
				Name:  "replay-ttl",
				Usage: "How long a used challenge is remembered",
			},
		},
		Action: runServe,
	}
}

// loadServeConfig reads the environment and applies flag overrides.
func loadServeConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("enabled-wallets") {
		types, err := enabledWallets(c)
		if err != nil {
			return nil, err
		}
		cfg.EnabledWallets = types
	}
	if c.IsSet("addr") {
		cfg.ServerAddr = c.String("addr")
	}
	if c.IsSet("replay-backend") {
		cfg.ReplayBackend = c.String("replay-backend")
	}
	if c.IsSet("redis-url") {
		cfg.RedisURL = c.String("redis-url")
	}
	if c.IsSet("replay-ttl") {
		cfg.ReplayTTL = c.Duration("replay-ttl")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newReplayStore opens the configured replay store. The returned close
// function is never nil.
func newReplayStore(ctx context.Context, cfg *config.Config) (replay.Store, func() error, error) {
	switch cfg.ReplayBackend {
	case config.ReplayMemory:
		return replay.NewMemoryStore(), func() error { return nil }, nil
	case config.ReplayRedis:
		store, err := replay.NewRedisStore(ctx, cfg.RedisURL, replay.DefaultKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, func() error { return nil }, nil
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadServeConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	logger, err := newLogger(cfg.LogLevel, "info")
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	client := walletverify.NewClient().
		WithLogger(logger).
		WithEnabledWallets(cfg.EnabledWallets...).
		WithRecorder(m)

	store, closeStore, err := newReplayStore(c.Context, cfg)
	if err != nil {
		logger.Error("failed to open replay store", zap.String("backend", cfg.ReplayBackend), zap.Error(err))
		return cli.Exit(err.Error(), exitUsage)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close replay store", zap.Error(err))
		}
	}()
	if store != nil {
		client.WithReplayGuard(store, cfg.ReplayTTL)
		logger.Info("replay protection enabled",
			zap.String("backend", cfg.ReplayBackend),
			zap.Duration("ttl", cfg.ReplayTTL),
		)
	}

	srv := server.New(cfg.ServerAddr, client, m, reg, logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
			return cli.Exit(err.Error(), exitInvalid)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
