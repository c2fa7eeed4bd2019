// Package workerpool runs CPU-heavy work on a fixed set of goroutines so event
// handling never blocks on decryption or bulk rendering.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-archiver/internal/observability"
)

// ErrClosed is returned for tasks submitted after Close.
var ErrClosed = errors.New("worker pool closed")

// Pool is a fixed-size set of workers fed by its own queue.
type Pool struct {
	name   string
	tasks  chan func()
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts size workers reading from a queue of queueDepth pending tasks.
func New(name string, size, queueDepth int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		name:   name,
		tasks:  make(chan func(), queueDepth),
		logger: logger.With(zap.String("pool", name)),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.run()
	}
	return p
}

// Name returns the pool name used in logs and metrics.
func (p *Pool) Name() string {
	return p.name
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		observability.PoolQueued(p.name, -1)
		task()
	}
}

// enqueue blocks while the queue is full; ctx only bounds the wait for a slot.
func (p *Pool) enqueue(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	// counted before the send so a worker never decrements first
	observability.PoolQueued(p.name, 1)
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		observability.PoolQueued(p.name, -1)
		return ctx.Err()
	}
}

// Close stops accepting work and waits for queued tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// Future delivers the result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Await blocks until the task finishes or ctx is done. A cancelled wait does
// not stop the task.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Submit queues fn on the pool. Each accepted task runs exactly once; a panic
// inside fn is delivered as an error.
func Submit[T any](ctx context.Context, p *Pool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	err := p.enqueue(ctx, func() {
		start := time.Now()
		defer func() {
			outcome := "ok"
			if r := recover(); r != nil {
				p.logger.Error("task panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				f.err = fmt.Errorf("%s pool: task panicked: %v", p.name, r)
				outcome = "panic"
			} else if f.err != nil {
				outcome = "error"
			}
			observability.PoolTaskDone(p.name, outcome, time.Since(start))
			close(f.done)
		}()
		f.value, f.err = fn()
	})
	if err != nil {
		f.err = fmt.Errorf("%s pool: %w", p.name, err)
		close(f.done)
	}
	return f
}

// Do submits fn and waits for its result.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	return Submit(ctx, p, fn).Await(ctx)
}
