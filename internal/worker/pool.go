// Package worker runs background tasks on a fixed set of goroutines.
//
// Request handlers use it for work that must not delay the response, such
// as recomputing a recipe's rating after a review is written. Tasks are
// queued on a buffered channel; a failed or panicking task is logged and
// counted, never silently lost.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStopped is returned by Submit after Stop has been called.
var ErrStopped = errors.New("worker: pool stopped")

// Task is one unit of background work. Name identifies it in logs.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config sizes a Pool.
type Config struct {
	Workers   int           // goroutines draining the queue
	QueueSize int           // buffered tasks before Submit blocks
	Timeout   time.Duration // per-task deadline
}

// DefaultConfig is used for any zero field of a Config.
var DefaultConfig = Config{Workers: 2, QueueSize: 64, Timeout: 30 * time.Second}

// Pool executes submitted Tasks in the background.
type Pool struct {
	config Config
	logger *slog.Logger
	tasks  chan Task
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once

	completed atomic.Int64
	failures  atomic.Int64
}

// NewPool creates a Pool. Call Start before submitting work.
func NewPool(cfg Config, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	return &Pool{
		config: cfg,
		logger: logger,
		tasks:  make(chan Task, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutines. Calling it again is a no-op.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool",
			slog.Int("workers", p.config.Workers),
			slog.Int("queueSize", p.config.QueueSize),
		)
		for i := 0; i < p.config.Workers; i++ {
			p.wg.Add(1)
			go p.loop()
		}
	})
}

// Stop refuses new tasks, waits for the queued ones to finish and returns.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down worker pool", slog.Int("queued", len(p.tasks)))
		p.mu.Lock()
		p.stopped = true
		close(p.done)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

// Submit queues t. It blocks while the queue is full, until ctx is done.
func (p *Pool) Submit(ctx context.Context, t Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- t:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker: queueing %s: %w", t.Name, ctx.Err())
	}
}

// Completed is the number of tasks that finished without error.
func (p *Pool) Completed() int64 { return p.completed.Load() }

// Failures is the number of tasks that returned an error or panicked.
func (p *Pool) Failures() int64 { return p.failures.Load() }

func (p *Pool) loop() {
	defer p.wg.Done()

	for {
		select {
		case t := <-p.tasks:
			p.run(t)
		case <-p.done:
			// Drain whatever was queued before Stop.
			for {
				select {
				case t := <-p.tasks:
					p.run(t)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.Timeout)
	defer cancel()

	start := time.Now()
	err := safeRun(ctx, t)
	if err != nil {
		p.failures.Add(1)
		p.logger.Error("background task failed",
			slog.String("task", t.Name),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return
	}

	p.completed.Add(1)
	p.logger.Debug("background task done",
		slog.String("task", t.Name),
		slog.Duration("duration", time.Since(start)),
	)
}

func safeRun(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Run(ctx)
}
