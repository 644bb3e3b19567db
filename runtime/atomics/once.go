package atomics

import "sync"

// Once is similar to sync.Once except that once.Do() returns true, if this
// was the first call to once.Do(). Additionally once.Wait() blocks until
// once.Do() has been called, and once.Done() exposes the same condition as
// a channel suitable for select statements.
//
// Also once.Do(nil) will not panic, but act similar to once.Do(func(){}).
type Once struct {
	m    sync.Mutex
	done bool
	c    chan struct{}
}

// Do will call f() and return true, the first time once.Do() is called.
// All following calls to once.Do() will not call f() and return false.
func (o *Once) Do(f func()) bool {
	o.m.Lock()
	defer o.m.Unlock()

	if o.done {
		return false
	}

	// Close channel if anyone is waiting
	defer func() {
		if o.c != nil {
			close(o.c)
		}
	}()

	// Set done regardless of panic
	defer func() { o.done = true }()

	if f != nil {
		f()
	}
	return true
}

// IsDone returns true if once.Do() has been called.
func (o *Once) IsDone() bool {
	o.m.Lock()
	defer o.m.Unlock()

	return o.done
}

// Done returns a channel that is closed when once.Do() has been called.
func (o *Once) Done() <-chan struct{} {
	o.m.Lock()
	defer o.m.Unlock()

	if o.c == nil {
		o.c = make(chan struct{})
		if o.done {
			close(o.c)
		}
	}
	return o.c
}

// Wait blocks until once.Do() has been called. After this once.Wait()
// will always return immediately.
func (o *Once) Wait() {
	<-o.Done()
}
