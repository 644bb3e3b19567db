package runtime

import (
	"github.com/ddossot/jruby-rack-worker/runtime/atomics"
)

// Stoppable is anything with a life-cycle that can be asked to stop.
type Stoppable interface {
	// StopGracefully asks the receiver to stop at its next check point.
	// This is a polite request, not a guarantee of termination.
	StopGracefully()
}

// LifeCycleTracker implements Stoppable as an atomics.Once that you can
// inspect, or get a blocking channel from.
//
// Workers embed a LifeCycleTracker so that both the manager and the script
// running inside an interpreter can observe the cooperative stop signal.
type LifeCycleTracker struct {
	Stopping atomics.Once
}

// StopGracefully marks the tracker as stopping. Safe to call multiple
// times, from any goroutine.
func (s *LifeCycleTracker) StopGracefully() {
	s.Stopping.Do(nil)
}

// IsStopping returns true once StopGracefully has been called.
func (s *LifeCycleTracker) IsStopping() bool {
	return s.Stopping.IsDone()
}

// StoppingChan returns a channel closed when StopGracefully is called.
func (s *LifeCycleTracker) StoppingChan() <-chan struct{} {
	return s.Stopping.Done()
}
