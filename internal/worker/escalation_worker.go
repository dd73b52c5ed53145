package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/civic-kit/complaint-service/internal/sla"
)

// EscalationWorker runs the SLA escalation sweep on a fixed interval.
type EscalationWorker struct {
	scheduler *sla.Scheduler
	logger    *zap.Logger
	interval  time.Duration
	timeout   time.Duration

	cancel  context.CancelFunc
	done    chan struct{}
	startMu sync.Mutex
	running bool
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(scheduler *sla.Scheduler, logger *zap.Logger, interval, timeout time.Duration) *EscalationWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &EscalationWorker{
		scheduler: scheduler,
		logger:    logger,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start launches the sweep loop. The first sweep runs after one full
// interval. Calling Start on a running worker is a no-op.
func (w *EscalationWorker) Start() {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	if w.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(ctx)
	w.logger.Info("escalation worker started", zap.Duration("interval", w.interval))
}

func (w *EscalationWorker) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *EscalationWorker) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if _, err := w.scheduler.RunSweep(sweepCtx); err != nil {
		w.logger.Error("escalation sweep failed", zap.Error(err))
	}
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (w *EscalationWorker) Stop() {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	if !w.running {
		return
	}
	w.cancel()
	<-w.done
	w.running = false
	w.logger.Info("escalation worker stopped")
}
