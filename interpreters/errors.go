package interpreters

import "errors"

// ErrNotSupported is returned from Provider.NewInterpreter when the host
// embedding is not ready or the provider cannot run on this platform.
//
// The manager handles this error structurally: it stops creating further
// workers for the current script, leaving already-started workers running.
var ErrNotSupported = errors.New("interpreter runtime is not available in the current configuration")

// ErrInterrupted is returned from Interpreter.Run when execution was
// aborted by context cancellation rather than the script returning.
var ErrInterrupted = errors.New("script execution was interrupted")

// ErrNoScript is returned from Interpreter.Run when neither script text
// nor a file name was given.
var ErrNoScript = errors.New("no script text or file name to execute")
