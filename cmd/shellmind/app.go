package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/iishyfishyy/shellmind/internal/agent"
	"github.com/iishyfishyy/shellmind/internal/config"
	"github.com/iishyfishyy/shellmind/internal/executor"
	"github.com/iishyfishyy/shellmind/internal/history"
	"github.com/iishyfishyy/shellmind/internal/llm"
	"github.com/iishyfishyy/shellmind/internal/logging"
	"github.com/iishyfishyy/shellmind/internal/metrics"
	"github.com/iishyfishyy/shellmind/internal/ui"
)

// app wires the components shared by the root command and serve
type app struct {
	logger     *zap.Logger
	metrics    *metrics.Metrics
	client     *llm.Client
	store      history.Store
	dispatcher *agent.Dispatcher
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	opts := logging.Options{Debug: cfg.Log.Debug}
	if cfg.Log.File {
		dir, err := config.GetConfigDir()
		if err != nil {
			return nil, err
		}
		opts.Dir = filepath.Join(dir, "logs")
	}
	return logging.New(opts)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		logger:  logger,
		metrics: metrics.New(),
	}

	a.client, err = llm.NewClientFromOptions(cfg.LLMOptions(),
		llm.WithLogger(logger.Named("llm")),
		llm.WithMetrics(a.metrics))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.store, err = openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	histOpts := []history.Option{history.WithLogger(logger.Named("history"))}
	if a.store != nil {
		histOpts = append(histOpts, history.WithStore(a.store))
	}

	dispOpts := []agent.Option{
		agent.WithLogger(logger.Named("agent")),
		agent.WithMetrics(a.metrics),
		agent.WithHistory(history.New(histOpts...)),
		agent.WithRunner(executor.New(
			executor.WithLogger(logger.Named("executor")),
			executor.WithMetrics(a.metrics))),
	}
	if cfg.Confirm {
		dispOpts = append(dispOpts, agent.WithConfirm(ui.ConfirmCommand))
	}
	a.dispatcher = agent.NewDispatcher(a.client, dispOpts...)

	logger.Debug("application initialized",
		zap.String("backend", a.client.Backend()),
		zap.String("history_driver", string(cfg.History.Driver)),
		zap.Bool("confirm", cfg.Confirm))
	return a, nil
}

// openStore returns the persistent history store for the configured
// driver, or nil for the in-memory driver
func openStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Driver {
	case config.HistorySQLite:
		path, err := cfg.HistoryPath()
		if err != nil {
			return nil, err
		}
		store, err := history.NewSQLiteStore(path, cfg.History.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		return store, nil
	case config.HistoryRedis:
		var opts []history.RedisOption
		if cfg.History.Redis.Key != "" {
			opts = append(opts, history.WithKey(cfg.History.Redis.Key))
		}
		if cfg.History.MaxEntries > 0 {
			opts = append(opts, history.WithMaxEntries(cfg.History.MaxEntries))
		}
		if cfg.History.Redis.TTL > 0 {
			opts = append(opts, history.WithTTL(cfg.History.Redis.TTL))
		}
		r := cfg.History.Redis
		store := history.NewRedisStore(r.Addr, r.Password, r.DB, opts...)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", r.Addr, err)
		}
		return store, nil
	default:
		return nil, nil
	}
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close history store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
