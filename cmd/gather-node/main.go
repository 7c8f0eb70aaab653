// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/alerts"
	"github.com/bureau-foundation/gather/lib/capability"
	"github.com/bureau-foundation/gather/lib/clock"
	"github.com/bureau-foundation/gather/lib/collection"
	"github.com/bureau-foundation/gather/lib/config"
	"github.com/bureau-foundation/gather/lib/gather"
	"github.com/bureau-foundation/gather/lib/modcall"
	"github.com/bureau-foundation/gather/lib/notification"
	"github.com/bureau-foundation/gather/lib/process"
	"github.com/bureau-foundation/gather/lib/recordstore"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
	"github.com/bureau-foundation/gather/lib/signal"
	"github.com/bureau-foundation/gather/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("gather-node", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to gather.yaml (default: $GATHER_CONFIG)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", process.ErrUsage, err)
	}
	if showVersion {
		fmt.Println(version.Banner("gather-node"))
		return nil
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", process.ErrUsage, flagSet.Arg(0))
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	logger.Info("gather node starting", append(version.LogAttrs(), "environment", cfg.Environment)...)

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	cell, err := recordstore.NewCell(backend, recordstore.CellConfig{
		Agent:     address.AgentKey(cfg.Agent.Seed),
		StoreID:   address.StoreID(cfg.Network.Seed),
		Clock:     clock.Real(),
		Logger:    logger,
		Validator: gather.Validator,
	})
	if err != nil {
		return fmt.Errorf("opening cell: %w", err)
	}
	logger.Info("cell ready",
		"agent", cell.Agent().Short(),
		"store", cell.StoreID().Short(),
		"backend", cfg.Store.Backend,
	)

	bus := signal.NewBus(logger)
	emitter := signal.NewEmitter(cell, bus, schema.SignalLinkTypes, logger)
	cell.OnPostCommit(emitter.PostCommit)
	signals, unsubscribe := bus.Subscribe(0)
	defer unsubscribe()
	go logSignals(ctx, signals, logger)

	if cfg.Relay.RedisURL != "" {
		relay, closeRelay, err := openRelay(ctx, cfg.Relay, logger)
		if err != nil {
			return err
		}
		defer closeRelay()
		relayed, unsubscribeRelay := bus.Subscribe(0)
		defer unsubscribeRelay()
		go relay.Run(ctx, relayed)
		logger.Info("relaying signals", "channel", cfg.Relay.Channel)
	}

	router, alertService, err := newRouter(cell, cfg, logger)
	if err != nil {
		return err
	}
	if dir := cfg.Notifications.CatalogDir; dir != "" {
		if err := notification.WatchDir(ctx, dir, alertService.SetCatalog, logger); err != nil {
			logger.Warn("notification catalog will not reload", "dir", dir, "error", err)
		}
	}

	server := modcall.NewSocketServer(cfg.Socket.Path, router, logger)
	logger.Info("gather node running",
		"socket", cfg.Socket.Path,
		"modules", router.Modules(),
	)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("serving %s: %w", cfg.Socket.Path, err)
	}
	logger.Info("shutting down")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openBackend(cfg *config.Config, logger *slog.Logger) (recordstore.Backend, error) {
	if cfg.Store.Backend == "memory" {
		logger.Warn("using the memory backend; records are lost on exit")
		return recordstore.NewMemoryBackend(), nil
	}
	compression, err := recordstore.ParseCompression(cfg.Store.Compression)
	if err != nil {
		return nil, err
	}
	backend, err := recordstore.OpenSQLite(recordstore.SQLiteConfig{
		Path:                 cfg.Store.Path,
		PoolSize:             cfg.Store.PoolSize,
		Compression:          compression,
		CompressionThreshold: cfg.Store.CompressionThreshold,
		Logger:               logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Store.Path, err)
	}
	return backend, nil
}

// openRelay connects to Redis and checks that it answers.
func openRelay(ctx context.Context, cfg config.RelayConfig, logger *slog.Logger) (*signal.Relay, func(), error) {
	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing relay.redis_url: %w", err)
	}
	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing redis client", "error", err)
		}
	}
	return signal.NewRelay(client, cfg.Channel, logger), closeClient, nil
}

// newRouter registers the local modules and forwards the configured
// remote ones.
func newRouter(cell *recordstore.Cell, cfg *config.Config, logger *slog.Logger) (*modcall.Router, *alerts.Service, error) {
	order, err := collection.ParseMembersOrder(cfg.Index.MembersOrder)
	if err != nil {
		return nil, nil, err
	}
	catalog := notification.Builtin()
	if cfg.Notifications.CatalogDir != "" {
		catalog, err = notification.LoadDir(cfg.Notifications.CatalogDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading notification catalog: %w", err)
		}
	}

	router := modcall.NewRouter(logger)

	gatherService := gather.NewService(cell, router, gather.Config{
		Collections: collection.Config{
			Permissive: !cfg.Index.StrictTransitions,
			Order:      order,
		},
		Logger: logger.With("module", gather.ModuleName),
	})
	gatherService.Register(router, gather.ModuleName)
	capability.NewRegistry().Expose(router, gather.ModuleName)

	alertService := alerts.NewService(cell, router, alerts.Config{
		Catalog:       catalog,
		DefaultLocale: cfg.Notifications.DefaultLocale,
		Logger:        logger.With("module", alerts.ModuleName),
	})
	alertService.Register(router, alerts.ModuleName)

	for module, socketPath := range cfg.Remotes {
		router.Forward(module, modcall.NewSocketClient(socketPath))
		logger.Info("forwarding module", "module", module, "socket", socketPath)
	}
	return router, alertService, nil
}

func logSignals(ctx context.Context, signals <-chan signal.Signal, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case received, ok := <-signals:
			if !ok {
				return
			}
			switch s := received.(type) {
			case signal.LinkCreated:
				logger.Debug("link created",
					"link_type", s.LinkType,
					"base", s.Action.Base.Short(),
					"target", s.Action.Target.Short(),
				)
			case signal.LinkDeleted:
				logger.Debug("link deleted",
					"link_type", s.LinkType,
					"base", s.CreateLinkAction.Base.Short(),
					"target", s.CreateLinkAction.Target.Short(),
				)
			}
		}
	}
}
