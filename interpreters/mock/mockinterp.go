package mockinterp

import (
	"context"
	"sync"
	"time"

	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/ddossot/jruby-rack-worker/interpreters"
)

// Behavior selects how a mock interpreter reacts to Run.
type Behavior int

const (
	// BehaviorCompleteOnStop makes Run block until the cooperative stop
	// binding reports true, the context is canceled, or Release is called.
	BehaviorCompleteOnStop Behavior = iota
	// BehaviorReturn makes Run return immediately.
	BehaviorReturn
	// BehaviorStubborn makes Run ignore both the cooperative stop signal
	// and context cancellation, blocking until Release is called. Used to
	// simulate a runtime that does not honor interruption.
	BehaviorStubborn
	// BehaviorFail makes Run return an error immediately.
	BehaviorFail
)

// StopBindingName is the binding the mock polls for cooperative stop, it
// matches the binding workers install for their scripts.
const StopBindingName = "stopping"

// Provider is a configurable interpreters.Provider for tests.
type Provider struct {
	interpreters.ProviderBase
	m sync.Mutex
	// Behavior applied to all interpreters created by this provider.
	Behavior Behavior
	// NewError, if non-nil, is returned from NewInterpreter once at most
	// FailAfter interpreters have been created.
	NewError  error
	FailAfter int
	// BindError, if non-nil, is returned from Bind on all interpreters
	// created by this provider.
	BindError error
	release   chan struct{}
	created   []*Interpreter
}

// New returns a Provider whose interpreters complete on cooperative stop.
func New() *Provider {
	return &Provider{
		release: make(chan struct{}),
	}
}

func init() {
	interpreters.Register("mock", New())
}

// ConfigSchema returns an empty object schema.
func (p *Provider) ConfigSchema() schematypes.Schema {
	return schematypes.Object{}
}

// NewInterpreter creates a mock interpreter, or fails with p.NewError once
// p.FailAfter interpreters exist.
func (p *Provider) NewInterpreter(options interpreters.Options) (interpreters.Interpreter, error) {
	p.m.Lock()
	defer p.m.Unlock()

	if p.NewError != nil && len(p.created) >= p.FailAfter {
		return nil, p.NewError
	}
	i := &Interpreter{
		behavior:  p.Behavior,
		bindError: p.BindError,
		release:   p.release,
		bindings:  make(map[string]interface{}),
	}
	p.created = append(p.created, i)
	return i, nil
}

// Created returns all interpreters this provider has handed out.
func (p *Provider) Created() []*Interpreter {
	p.m.Lock()
	defer p.m.Unlock()

	created := make([]*Interpreter, len(p.created))
	copy(created, p.created)
	return created
}

// Release unblocks all stubborn or still-running interpreters. Call from
// test cleanup so abandoned worker goroutines can exit.
func (p *Provider) Release() {
	p.m.Lock()
	defer p.m.Unlock()

	select {
	case <-p.release:
	default:
		close(p.release)
	}
}

// Interpreter is a mock interpreters.Interpreter recording all calls.
type Interpreter struct {
	m         sync.Mutex
	behavior  Behavior
	bindError error
	release   chan struct{}
	bindings  map[string]interface{}
	unbound   []string
	scripts   []string
	closed    bool
}

// SetBehavior changes how Run reacts, for tests that want one worker out
// of many to misbehave. A running BehaviorCompleteOnStop loop picks the
// new behavior up within a tick.
func (i *Interpreter) SetBehavior(behavior Behavior) {
	i.m.Lock()
	defer i.m.Unlock()

	i.behavior = behavior
}

// Bind records the binding, or fails with the provider's BindError.
func (i *Interpreter) Bind(name string, value interface{}) error {
	i.m.Lock()
	defer i.m.Unlock()

	if i.bindError != nil {
		return i.bindError
	}
	i.bindings[name] = value
	return nil
}

// Unbind records the unbinding.
func (i *Interpreter) Unbind(name string) error {
	i.m.Lock()
	defer i.m.Unlock()

	delete(i.bindings, name)
	i.unbound = append(i.unbound, name)
	return nil
}

// Bound returns the currently bound value and whether name is bound.
func (i *Interpreter) Bound(name string) (interface{}, bool) {
	i.m.Lock()
	defer i.m.Unlock()

	v, ok := i.bindings[name]
	return v, ok
}

// WasUnbound returns true if name has been unbound at some point.
func (i *Interpreter) WasUnbound(name string) bool {
	i.m.Lock()
	defer i.m.Unlock()

	for _, n := range i.unbound {
		if n == name {
			return true
		}
	}
	return false
}

// Scripts returns the scripts Run has been called with, script text or
// file name, whichever was given.
func (i *Interpreter) Scripts() []string {
	i.m.Lock()
	defer i.m.Unlock()

	scripts := make([]string, len(i.scripts))
	copy(scripts, i.scripts)
	return scripts
}

// Closed returns true once Close has been called.
func (i *Interpreter) Closed() bool {
	i.m.Lock()
	defer i.m.Unlock()

	return i.closed
}

func (i *Interpreter) stopRequested() bool {
	i.m.Lock()
	defer i.m.Unlock()

	if fn, ok := i.bindings[StopBindingName].(func() bool); ok {
		return fn()
	}
	return false
}

// Run simulates script execution according to the configured behavior.
func (i *Interpreter) Run(ctx context.Context, script, fileName string) error {
	if script == "" && fileName == "" {
		return interpreters.ErrNoScript
	}
	i.m.Lock()
	if script != "" {
		i.scripts = append(i.scripts, script)
	} else {
		i.scripts = append(i.scripts, fileName)
	}
	i.m.Unlock()

	switch i.currentBehavior() {
	case BehaviorReturn:
		return nil
	case BehaviorFail:
		return interpreters.ErrNotSupported
	}

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if i.currentBehavior() == BehaviorStubborn {
			// Ignores the cooperative stop signal and the context.
			<-i.release
			return nil
		}
		if i.stopRequested() {
			return nil
		}
		select {
		case <-ctx.Done():
			return interpreters.ErrInterrupted
		case <-i.release:
			return nil
		case <-ticker.C:
		}
	}
}

func (i *Interpreter) currentBehavior() Behavior {
	i.m.Lock()
	defer i.m.Unlock()

	return i.behavior
}

// Close records the interpreter as closed.
func (i *Interpreter) Close() error {
	i.m.Lock()
	defer i.m.Unlock()

	i.closed = true
	return nil
}
