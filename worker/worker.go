package worker

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ddossot/jruby-rack-worker/interpreters"
	"github.com/ddossot/jruby-rack-worker/runtime"
)

// StopBindingName is the name under which a worker binds its cooperative
// stop predicate (a func() bool) into the interpreter's host namespace.
// Job-processing loops are expected to poll it at their check points.
const StopBindingName = "stopping"

// A Worker wraps one interpreter instance plus a script and runs as the
// body of a worker thread.
type Worker struct {
	interpreter interpreters.Interpreter
	script      string
	fileName    string
	monitor     runtime.Monitor
	lifeCycle   runtime.LifeCycleTracker
}

// NewWorker creates a worker for the given interpreter and script. One of
// script and fileName may be empty but not both. The cooperative stop
// predicate is bound into the interpreter before the worker ever runs.
func NewWorker(interpreter interpreters.Interpreter, script, fileName string, monitor runtime.Monitor) (*Worker, error) {
	if script == "" && fileName == "" {
		return nil, errors.New("worker requires script text or a file name")
	}
	w := &Worker{
		interpreter: interpreter,
		script:      script,
		fileName:    fileName,
		monitor:     monitor,
	}
	if err := interpreter.Bind(StopBindingName, w.StopRequested); err != nil {
		return nil, errors.Wrap(err, "failed to bind cooperative stop signal")
	}
	return w, nil
}

// Run executes the worker's script in its interpreter until the script
// returns or ctx is canceled. It is the thread body and blocks for the
// worker's full lifetime.
func (w *Worker) Run(ctx context.Context) {
	err := w.interpreter.Run(ctx, w.script, w.fileName)
	switch {
	case err == nil:
		w.monitor.Debugf("worker script finished: %s", w)
	case errors.Is(err, interpreters.ErrInterrupted):
		w.monitor.Debugf("worker script interrupted: %s", w)
	default:
		w.monitor.ReportError(err, "worker script failed: ", w)
	}
	if cerr := w.interpreter.Close(); cerr != nil {
		w.monitor.ReportWarning(cerr, "failed to close interpreter for: ", w)
	}
}

// Stop requests a cooperative stop: the script observes it through the
// stop binding at its own check points. Stop never blocks.
func (w *Worker) Stop() {
	w.lifeCycle.StopGracefully()
}

// StopRequested returns true once Stop has been called. This is the
// predicate bound into the interpreter under StopBindingName.
func (w *Worker) StopRequested() bool {
	return w.lifeCycle.IsStopping()
}

func (w *Worker) String() string {
	if w.fileName != "" {
		return w.fileName
	}
	return "<inline script>"
}
