package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/observability"
	"github.com/spec-kit/campus-helpdesk/internal/persistence"
	"github.com/spec-kit/campus-helpdesk/internal/service"
)

const sweepLeaseKey = "helpdesk:sweep:leader"

// SweepWorker runs the deadline sweep on a fixed interval. When redis is
// available a short leader lease keeps horizontally scaled instances from
// sweeping the same tickets concurrently; losing the lease just skips the
// pass.
type SweepWorker struct {
	sweeper  *service.SweepService
	redis    *persistence.Redis
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
	lease    time.Duration
	holder   string
}

// NewSweepWorker constructs the worker. A zero interval disables Run.
func NewSweepWorker(
	sweeper *service.SweepService,
	redis *persistence.Redis,
	metrics *observability.Metrics,
	logger *zap.Logger,
	interval, lease time.Duration,
) *SweepWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepWorker{
		sweeper:  sweeper,
		redis:    redis,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		lease:    lease,
		holder:   uuid.NewString(),
	}
}

// Run loops until the context is cancelled, sweeping once immediately and
// then on every tick.
func (w *SweepWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("sweep worker disabled")
		return
	}

	w.logger.Info("sweep worker started", zap.Duration("interval", w.interval))
	w.sweepOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweep worker stopped")
			return
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *SweepWorker) sweepOnce(ctx context.Context) {
	acquired, err := w.redis.AcquireLease(ctx, sweepLeaseKey, w.holder, w.lease)
	if err != nil {
		w.logger.Warn("sweep lease check failed", zap.Error(err))
		return
	}
	if !acquired {
		w.logger.Debug("sweep lease held elsewhere, skipping pass")
		return
	}
	defer func() {
		if err := w.redis.ReleaseLease(ctx, sweepLeaseKey, w.holder); err != nil {
			w.logger.Warn("sweep lease release failed", zap.Error(err))
		}
	}()

	result, err := w.sweeper.Sweep(ctx, time.Now())
	if err != nil {
		w.logger.Error("sweep pass failed", zap.Error(err))
		return
	}
	if w.metrics != nil {
		w.metrics.RecordSweep(result.Expired)
	}
}
