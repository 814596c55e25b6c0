// Package bootstrap handles application initialization and lifecycle management
// for the content mirror.
//
// Serve runs in phases:
//   - Config and logger
//   - Backing services (PostgreSQL, Redis, blob store) and component wiring
//   - HTTP server, webhook worker and optional sync scheduler, until interrupted
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/mirror"
	"golang.org/x/sync/errgroup"
)

// Init loads config, creates the logger and wires the App. The caller must call Close.
func Init(ctx context.Context, configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return app, nil
}

// Serve runs the HTTP API, the webhook worker and the sync scheduler until SIGINT or SIGTERM.
func Serve(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := Init(ctx, configPath)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()
	defer app.Close()

	app.Logger.Info("Starting content mirror",
		logger.Int("port", app.Config.Service.Port),
		logger.String("storage_driver", app.Config.Storage.Driver),
	)

	consumer, err := app.NewConsumer(consumerID())
	if err != nil {
		return fmt.Errorf("webhook worker: %w", err)
	}

	var scheduler *mirror.Scheduler
	if schedule := app.Config.Sync.Schedule; schedule != "" {
		scheduler, err = mirror.NewScheduler(schedule, app.Syncer, app.Config.Sync.Timeout, app.Logger)
		if err != nil {
			return err
		}
	}

	srv := SetupHTTPServer(app)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(groupCtx)
	})
	group.Go(func() error {
		return consumer.Run(groupCtx, app.Lifecycle.Process)
	})
	if scheduler != nil {
		group.Go(func() error {
			return scheduler.Run(groupCtx)
		})
	}

	if runErr := group.Wait(); runErr != nil {
		app.Logger.Error("Content mirror stopped with error", logger.Error(runErr))
		return runErr
	}

	app.Logger.Info("Content mirror stopped")
	return nil
}

// consumerID names this worker within the consumer group. It must be stable across restarts so
// the worker replays its own pending jobs.
func consumerID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "worker"
	}
	return host
}
