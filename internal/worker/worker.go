// Package worker runs the periodic background duties: journey
// materialization, hold reclamation and ticket retirement. Each Runner owns
// one duty on its own timer and observes cancellation between iterations,
// never mid-transaction.
package worker

import (
	"context"
	"sync"
	"time"

	"railbook/pkg/logger"
)

type Task func(ctx context.Context) error

type Runner struct {
	name       string
	interval   time.Duration
	runOnStart bool
	task       Task
	log        *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func NewRunner(name string, interval time.Duration, runOnStart bool, task Task, log *logger.Logger) *Runner {
	return &Runner{
		name:       name,
		interval:   interval,
		runOnStart: runOnStart,
		task:       task,
		log:        log,
	}
}

func (r *Runner) Name() string {
	return r.name
}

// Start launches the runner's loop. Starting twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(runCtx)
	r.log.Info("Worker started", "worker", r.name, "interval", r.interval)
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	if r.runOnStart {
		r.runOnce(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Worker stopping", "worker", r.name)
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := r.task(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.log.Error("Worker iteration failed",
			"worker", r.name,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	r.log.Debug("Worker iteration completed",
		"worker", r.name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop cancels the loop and blocks until the current iteration returns.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	r.cancel()
	<-r.done
	r.started = false
}
