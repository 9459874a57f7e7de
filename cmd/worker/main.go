package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"skillmatch/internal/app"
	"skillmatch/internal/config"
	"skillmatch/internal/logger"
	"skillmatch/internal/worker"
)

// per request, covering a job URL fetch and the report upload
const processTimeout = 2 * time.Minute

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadCLI("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Queue.Enabled() {
		return errors.New("AMQP_URL is required")
	}

	l, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.NewContainer(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("init container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			l.Warn("close error", zap.Error(err))
		}
	}()

	r := worker.NewRunner(c.Broker, c.MatchingUC, cfg.Queue.Workers, processTimeout, l)
	if err := r.Run(ctx); err != nil {
		return err
	}
	l.Info("worker stopped")
	return nil
}
