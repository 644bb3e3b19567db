package runtime

import (
	"os"
	"os/signal"
	"syscall"
)

// ShutdownManager implements a method for listening for shutdown events.
type ShutdownManager interface {
	WaitForShutdown() <-chan struct{}
}

// LocalShutdownManager is a ShutdownManager that listens for shutdown
// events suitable for a local non-cloud environment, SIGINT and SIGTERM.
type LocalShutdownManager struct {
	c chan struct{}
}

// NewLocalShutdownManager starts listening for SIGINT and SIGTERM.
func NewLocalShutdownManager() *LocalShutdownManager {
	s := &LocalShutdownManager{
		c: make(chan struct{}),
	}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		signal.Stop(sigs)
		close(s.c)
	}()
	return s
}

// WaitForShutdown returns a channel closed when a shutdown signal has
// been received.
func (s *LocalShutdownManager) WaitForShutdown() <-chan struct{} {
	return s.c
}
