package interpreters

import (
	"context"

	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/ddossot/jruby-rack-worker/runtime"
)

// An Interpreter is one embedded scripting runtime instance, typically
// owned by a single worker for the worker's full lifetime.
//
// Implementations need not be thread-safe, the manager guarantees that one
// interpreter instance is driven by one worker goroutine, unless the
// Provider documents otherwise and deliberately hands out a shared
// instance.
type Interpreter interface {
	// Bind makes value available to scripts under the given name in the
	// interpreter's host namespace.
	Bind(name string, value interface{}) error

	// Unbind removes a name previously bound with Bind. Unbinding a name
	// that was never bound is not an error.
	Unbind(name string) error

	// Run parses and executes the given script until it returns or ctx is
	// canceled. Exactly one of script and fileName may be empty; when both
	// are given script holds the source text and fileName is advisory.
	//
	// Run blocks for the duration of the script, it is the body of a
	// worker thread.
	Run(ctx context.Context, script, fileName string) error

	// Close releases any resources held by the interpreter. Called after
	// the owning worker has stopped, never while Run is executing.
	Close() error
}

// Options is a wrapper for the arguments given to a Provider when an
// Interpreter is created.
//
// We pass all options as a single argument, so that we can add additional
// properties without breaking source compatibility.
type Options struct {
	Monitor runtime.Monitor
	Config  interface{}
}

// A Provider creates Interpreter instances for workers.
//
// The manager calls NewInterpreter once per worker thread it fans out, so
// a Provider must either return a fresh instance per call or document that
// the returned instance is safe for concurrent use.
//
// A Provider whose host embedding is not ready must return ErrNotSupported,
// the manager treats this as a structural failure and stops fanning out
// workers for the current script.
type Provider interface {
	NewInterpreter(options Options) (Interpreter, error)

	// ConfigSchema returns the schema for the provider configuration.
	ConfigSchema() schematypes.Schema
}

// ProviderBase is a base struct that provides empty implementations of
// some methods for Provider.
//
// Implementors of Provider should embed this struct to ensure forward
// compatibility when we add new optional methods to Provider.
type ProviderBase struct{}

// ConfigSchema returns an empty object schema.
func (ProviderBase) ConfigSchema() schematypes.Schema {
	return schematypes.Object{}
}
