// Package executor consumes authorized actions and hands them to
// per-kind executors.
//
// OS-level injection (keyboard, mouse, window control) lives outside
// this repository; the default sink just logs what would run. The
// script kind is handled in-process by the Lua engine in the script
// subpackage.
package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nyxhci/nyx/internal/gesture"
)

// ErrNoExecutor is reported when an action's kind has no registered
// executor and no fallback.
var ErrNoExecutor = errors.New("executor: no executor for kind")

// Outcome is the result of executing one action.
type Outcome struct {
	ActionID string
	Kind     string
	Err      error
	Duration time.Duration
}

// Executor runs actions of one kind.
type Executor interface {
	Execute(ctx context.Context, act gesture.Action) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, act gesture.Action) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, act gesture.Action) error {
	return f(ctx, act)
}

// LogSink is the fallback executor: it logs the action instead of
// performing it.
func LogSink(log *zap.Logger) Executor {
	return ExecutorFunc(func(_ context.Context, act gesture.Action) error {
		log.Info("action",
			zap.String("kind", act.Kind),
			zap.String("command", act.Command),
			zap.String("gesture", act.Gesture),
			zap.String("profile", act.Profile))
		return nil
	})
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithFallback replaces the default log sink.
func WithFallback(e Executor) Option {
	return func(r *Runner) { r.fallback = e }
}

// WithOutcomes attaches a channel that receives every execution
// outcome. Sends are non-blocking; a full channel loses outcomes, not
// actions.
func WithOutcomes(ch chan<- Outcome) Option {
	return func(r *Runner) { r.outcomes = ch }
}

// Runner drains an action channel and dispatches by kind.
type Runner struct {
	mu        sync.RWMutex
	executors map[string]Executor
	fallback  Executor
	outcomes  chan<- Outcome
	log       *zap.Logger

	executed atomic.Uint64
	failed   atomic.Uint64

	wg sync.WaitGroup
}

// NewRunner creates a runner with the log sink as fallback.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		executors: make(map[string]Executor),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fallback == nil {
		r.fallback = LogSink(r.log)
	}
	return r
}

// Register binds an executor to an action kind, replacing any prior
// binding.
func (r *Runner) Register(kind string, e Executor) {
	r.mu.Lock()
	r.executors[kind] = e
	r.mu.Unlock()
}

// Executed returns the number of successfully executed actions.
func (r *Runner) Executed() uint64 { return r.executed.Load() }

// Failed returns the number of failed executions.
func (r *Runner) Failed() uint64 { return r.failed.Load() }

// Start drains actions until the channel closes or the context is
// canceled.
func (r *Runner) Start(ctx context.Context, actions <-chan gesture.Action) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case act, ok := <-actions:
				if !ok {
					return
				}
				r.run(ctx, act)
			}
		}
	}()
}

// Wait blocks until the drain goroutine exits.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) run(ctx context.Context, act gesture.Action) {
	r.mu.RLock()
	e, ok := r.executors[act.Kind]
	r.mu.RUnlock()
	if !ok {
		e = r.fallback
	}

	start := time.Now()
	err := e.Execute(ctx, act)
	elapsed := time.Since(start)

	if err != nil {
		r.failed.Add(1)
		r.log.Warn("action failed",
			zap.String("kind", act.Kind),
			zap.String("command", act.Command),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	} else {
		r.executed.Add(1)
	}

	if r.outcomes != nil {
		select {
		case r.outcomes <- Outcome{ActionID: act.ID, Kind: act.Kind, Err: err, Duration: elapsed}:
		default:
		}
	}
}
