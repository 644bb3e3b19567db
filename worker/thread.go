package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ddossot/jruby-rack-worker/runtime/atomics"
)

// Priority is an advisory scheduling priority carried by worker threads.
// Goroutines have no OS-level priority, the value is surfaced in thread
// names and log fields so operators can still distinguish worker classes.
type Priority int

// Priority constants, mirroring the classic 1..10 range.
const (
	MinPriority  Priority = 1
	NormPriority Priority = 5
	MaxPriority  Priority = 10
)

// ErrJoinTimeout is returned from Thread.Join when the bounded wait
// elapsed before the thread finished. The thread is abandoned still
// running, callers log and move on.
var ErrJoinTimeout = errors.New("timed out waiting for worker thread to finish")

// A Thread is a handle to one worker goroutine: named, carrying an
// advisory priority, interruptible through context cancellation and
// joinable with a bounded wait.
type Thread struct {
	name     string
	priority Priority
	body     func(ctx context.Context)
	cancel   context.CancelFunc
	ctx      context.Context
	started  atomics.Bool
	done     chan struct{}
}

// Name returns the thread name, e.g. "worker-2".
func (t *Thread) Name() string { return t.name }

// Priority returns the advisory priority the thread was created with.
func (t *Thread) Priority() Priority { return t.priority }

// Start launches the thread body on its own goroutine. Must be called at
// most once.
func (t *Thread) Start() {
	if t.started.Swap(true) {
		panic(fmt.Sprintf("thread %s started twice", t.name))
	}
	go func() {
		defer close(t.done)
		t.body(t.ctx)
	}()
}

// Interrupt cancels the context the thread body runs under. Safe to call
// multiple times and before Start.
func (t *Thread) Interrupt() {
	t.cancel()
}

// Join waits for the thread to finish, at most timeout. Returns
// ErrJoinTimeout when the bounded wait elapses, or the ctx error when the
// join itself is interrupted.
func (t *Thread) Join(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return nil
	case <-timer.C:
		return ErrJoinTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the thread body has returned.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// A ThreadFactory creates named, prioritized threads for workers.
type ThreadFactory struct {
	prefix   string
	priority Priority
	counter  int
}

// NewThreadFactory returns a factory naming threads prefix-1, prefix-2,
// and so on, all carrying the given advisory priority.
func NewThreadFactory(prefix string, priority Priority) *ThreadFactory {
	if prefix == "" {
		prefix = "worker"
	}
	return &ThreadFactory{prefix: prefix, priority: priority}
}

// NewThread creates a thread running body when started. Not safe for
// concurrent use, threads are created sequentially by the control
// goroutine.
func (f *ThreadFactory) NewThread(body func(ctx context.Context)) *Thread {
	f.counter++
	ctx, cancel := context.WithCancel(context.Background())
	return &Thread{
		name:     fmt.Sprintf("%s-%d", f.prefix, f.counter),
		priority: f.priority,
		body:     body,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}
