package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"skillmatch/internal/domain/match"
	"skillmatch/internal/logger"
)

type RequestSource interface {
	ConsumeRequests(ctx context.Context, prefetch int, handle func(context.Context, match.Request) error) error
}

type Processor interface {
	Process(ctx context.Context, req match.Request) error
}

// Runner processes queued match requests with one competing consumer per
// pool worker. Each consumer holds at most one unacked request.
type Runner struct {
	src     RequestSource
	proc    Processor
	pool    *Pool
	timeout time.Duration
	logger  *zap.Logger
}

func NewRunner(src RequestSource, proc Processor, workers int, timeout time.Duration, l *zap.Logger) *Runner {
	return &Runner{
		src:     src,
		proc:    proc,
		pool:    NewPool(workers, workers),
		timeout: timeout,
		logger:  logger.Named(l, "worker"),
	}
}

// Run blocks until ctx is done or a consumer fails. A consumer failure
// stops the others and is returned.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := r.pool.Run(ctx)
	for i := 0; i < r.pool.Workers(); i++ {
		if err := r.pool.Submit(ctx, r.consume); err != nil {
			return err
		}
	}
	r.pool.Close()
	r.logger.Info("worker started", zap.Int("consumers", r.pool.Workers()))

	var firstErr error
	for res := range results {
		if res.Err != nil && firstErr == nil {
			firstErr = res.Err
			cancel()
		}
	}
	if errors.Is(firstErr, context.Canceled) {
		return nil
	}
	return firstErr
}

func (r *Runner) consume(ctx context.Context) error {
	return r.src.ConsumeRequests(ctx, 1, r.handle)
}

func (r *Runner) handle(ctx context.Context, req match.Request) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err := r.proc.Process(ctx, req)
	fields := []zap.Field{
		zap.String(logger.FieldMatchID, req.MatchID.String()),
		zap.String(logger.FieldUserID, req.UserID.String()),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		r.logger.Warn("match request failed", append(fields, zap.Error(err))...)
		return err
	}
	r.logger.Info("match request processed", fields...)
	return nil
}
