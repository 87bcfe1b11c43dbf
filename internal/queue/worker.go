package queue

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Handler processes one task. It should bound its own work; the worker only
// enforces the hard timeout.
type Handler func(ctx context.Context, task Task) error

type WorkerConfig struct {
	Concurrency int
	HardTimeout time.Duration
	PollWait    time.Duration
	// ErrorBackoff is the pause after a failed Dequeue. Defaults to 1s.
	ErrorBackoff time.Duration
}

// Worker pulls tasks from a Queue and runs up to Concurrency handlers at once.
type Worker struct {
	queue   Queue
	handler Handler
	cfg     WorkerConfig
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewWorker creates a Worker. A nil logger means slog.Default().
func NewWorker(q Queue, h Handler, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.PollWait <= 0 {
		cfg.PollWait = 5 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{queue: q, handler: h, cfg: cfg, logger: logger}
}

// Run dequeues until ctx is cancelled, then waits for in-flight tasks to
// finish or be abandoned by the hard timeout.
func (w *Worker) Run(ctx context.Context) error {
	sem := make(chan struct{}, w.cfg.Concurrency)
	w.logger.Info("worker started", "concurrency", w.cfg.Concurrency, "hard_timeout", w.cfg.HardTimeout.String())

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		task, err := w.queue.Dequeue(ctx, w.cfg.PollWait)
		if err != nil {
			<-sem
			if ctx.Err() != nil {
				break loop
			}
			if errors.Is(err, ErrMalformedTask) {
				w.logger.Error("dropping malformed task", "error", err)
				continue
			}
			w.logger.Error("dequeue failed", "error", err)
			select {
			case <-ctx.Done():
				break loop
			case <-time.After(w.cfg.ErrorBackoff):
			}
			continue
		}
		if task == nil {
			<-sem
			continue
		}

		w.wg.Add(1)
		go func(t Task) {
			defer w.wg.Done()
			defer func() { <-sem }()
			w.process(ctx, t)
		}(*task)
	}

	w.wg.Wait()
	w.logger.Info("worker stopped")
	return nil
}

// process runs the handler in its own goroutine so that a handler stuck past
// the hard timeout can be abandoned and its slot reused.
func (w *Worker) process(ctx context.Context, task Task) {
	log := w.logger.With("job_loading_id", task.JobLoadingID, "source_url", task.SourceURL)

	// shutdown does not cancel a running attempt
	taskCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if w.cfg.HardTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(taskCtx, w.cfg.HardTimeout)
	}
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in task handler", "error", r, "stack", string(debug.Stack()))
			}
		}()
		if err := w.handler(taskCtx, task); err != nil {
			log.Warn("task finished with error", "error", err)
		}
	}()

	select {
	case <-done:
	case <-taskCtx.Done():
		log.Error("task exceeded hard timeout, abandoning", "hard_timeout", w.cfg.HardTimeout.String())
	}
}
