// Package goroutine runs long-lived background jobs, such as event consumers,
// under a shared concurrency limit and collects their errors on shutdown.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
	"go.uber.org/atomic"
)

// DefaultMaxGoroutine is multiplied by NumCPU when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrLimitReached is returned by Go when every slot is taken.
var ErrLimitReached = errors.New("goroutine: maximum goroutine limit reached")

// ErrClosed is returned by Go after Wait has been called.
var ErrClosed = errors.New("goroutine: manager is closed")

// Manager runs named jobs in goroutines with a concurrency limit.
type Manager struct {
	mu   sync.Mutex
	errs []error
	wg   sync.WaitGroup
	sema chan struct{}

	// stateMu orders Go against Wait so no job is added after Wait starts.
	stateMu sync.RWMutex
	closed  *atomic.Bool
	running *atomic.Int64
}

// NewManager creates a Manager allowing at most maxGoroutine concurrent jobs.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema:    make(chan struct{}, maxGoroutine),
		closed:  atomic.NewBool(false),
		running: atomic.NewInt64(0),
	}
}

// Running reports the number of jobs currently executing.
func (g *Manager) Running() int64 {
	return g.running.Load()
}

// Go schedules f under name. It does not block: when the limit is reached or
// the manager is closed the job is rejected and the error is returned.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed.Load() {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping job", "job", name)
		return ErrClosed
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "maximum goroutine limit reached, skipping job", "job", name)
		return ErrLimitReached
	}

	g.running.Inc()
	g.wg.Go(func() {
		defer func() {
			g.running.Dec()
			<-g.sema

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "job", name, "panic", rvr, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic occurred in goroutine", "job", name, "panic", rvr, "stack", string(stack))
				}
				g.record(fmt.Errorf("%s: panic: %v", name, rvr))
			}
		}()

		if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
			g.record(fmt.Errorf("%s: %w", name, err))
		}
	})

	return nil
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// Wait closes the manager, blocks until every job returns, and joins their errors.
func (g *Manager) Wait() error {
	g.stateMu.Lock()
	g.closed.Store(true)
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
