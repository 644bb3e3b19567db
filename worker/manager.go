package worker

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ddossot/jruby-rack-worker/interpreters"
	"github.com/ddossot/jruby-rack-worker/runtime"
)

// ExportedName is the reserved name under which the manager binds itself
// into each worker's interpreter while export is enabled. Scripts use it
// to resolve configuration parameters the same way the manager does, via
// Manager.Get.
const ExportedName = "worker_manager"

// defaultJoinTimeout bounds the per-worker wait during shutdown. A worker
// that outlives it is abandoned still running, a documented leak-and-move-on
// policy rather than a hard termination guarantee.
const defaultJoinTimeout = 1000 * time.Millisecond

// Options is the set of collaborators and settings for a Manager.
type Options struct {
	// Params is the configuration parameter source, required.
	Params Params
	// Provider supplies one interpreter instance per worker, required.
	Provider interpreters.Provider
	// InterpreterConfig is passed through to the provider on every
	// acquisition, validated against the provider's ConfigSchema.
	InterpreterConfig interface{}
	// Monitor for diagnostics, a logging monitor is created when nil.
	Monitor runtime.Monitor
	// HostLogger is the alternate diagnostics sink selected by the
	// ForceHostLoggerKey parameter.
	HostLogger *logrus.Logger
	// ThreadPrefix names worker threads, defaults to "worker".
	ThreadPrefix string
}

// A Manager starts, tracks and gracefully stops a configurable pool of
// long-running worker threads, each handing off execution to an embedded
// scripting runtime.
//
// A Manager is created once per host process and lives for the process
// lifetime. Startup and Shutdown execute on a single control goroutine,
// they are not safe to invoke concurrently with each other or themselves,
// that is the caller's contract and is not enforced with locks.
type Manager struct {
	params       Params
	provider     interpreters.Provider
	interpConfig interface{}
	monitor      runtime.Monitor
	threadPrefix string
	exported     bool
	joinTimeout  time.Duration

	// memoized configuration, computed once on first access
	threadCount    *int
	threadPriority *Priority

	// workers maps each live worker to its owning thread. Populated only
	// during Startup, snapshot-and-cleared only during Shutdown, guarded
	// solely by the single-control-goroutine discipline.
	workers map[*Worker]*Thread
}

// New creates a Manager. The manager is exported to its workers'
// interpreters by default, see SetExported.
func New(options Options) (*Manager, error) {
	if options.Params == nil {
		return nil, errors.New("worker.Options.Params is required")
	}
	if options.Provider == nil {
		return nil, errors.New("worker.Options.Provider is required")
	}

	m := &Manager{
		params:       options.Params,
		provider:     options.Provider,
		interpConfig: options.InterpreterConfig,
		threadPrefix: options.ThreadPrefix,
		exported:     true,
		joinTimeout:  defaultJoinTimeout,
		workers:      make(map[*Worker]*Thread),
	}

	monitor := options.Monitor
	if m.UseHostLogger() && options.HostLogger != nil {
		monitor = runtime.NewMonitorFromLogger(options.HostLogger)
	}
	if monitor == nil {
		monitor = runtime.NewLoggingMonitor("info", nil)
	}
	m.monitor = monitor.WithPrefix("worker-manager")

	return m, nil
}

// Startup resolves all configured worker scripts and fans each one out to
// ThreadCount (interpreter, thread) pairs. Nothing escapes as an error:
// failures degrade to partial or zero worker counts plus diagnostics.
//
// Startup is idempotent in intent only, calling it twice starts a second
// set of workers.
func (m *Manager) Startup(ctx context.Context) {
	scripts := m.WorkerScripts()

	if len(scripts) == 0 {
		m.monitor.Infof(
			"no worker script to execute - configure one using '%s' or '%s' parameter "+
				"(or see previous errors if already configured)",
			ScriptKey, ScriptPathKey)
		return
	}

	m.monitor.Infof("located %d worker(s) configurations", len(scripts))

	for _, script := range scripts {
		m.startupScript(ctx, script)
	}
}

// startupScript starts up to ThreadCount worker/thread pairs for one
// script, best-effort: the first hard failure aborts the remaining count
// but leaves already-started workers running.
func (m *Manager) startupScript(ctx context.Context, script Script) {
	count := m.ThreadCount()
	m.monitor.Infof("starting %d worker(s) for: %s", count, script)

	factory := m.newThreadFactory()
	started := 0
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			m.monitor.Warnf("interrupted while starting workers for: %s", script)
			break
		}

		interpreter, err := m.provider.NewInterpreter(interpreters.Options{
			Monitor: m.monitor.WithPrefix("interpreter").WithTag("script", script.String()),
			Config:  m.interpConfig,
		})
		if err != nil {
			// Covers ErrNotSupported (host embedding not ready) as well as
			// any other structural acquisition failure.
			m.monitor.ReportWarning(err, "failed to obtain interpreter runtime")
			break
		}

		if m.Exported() {
			if err := interpreter.Bind(ExportedName, m); err != nil {
				m.monitor.ReportError(err, "worker startup failed")
				m.closeInterpreter(interpreter)
				break
			}
		}

		worker, err := NewWorker(interpreter, script.Source(), script.FileName(),
			m.monitor.WithTag("script", script.String()))
		if err != nil {
			m.monitor.ReportError(err, "worker startup failed")
			m.closeInterpreter(interpreter)
			break
		}
		thread := factory.NewThread(worker.Run)
		// Register before starting, shutdown must be able to find the
		// worker even if it is stopped immediately.
		m.workers[worker] = thread
		thread.Start()
		started++
		m.monitor.Infof("started worker for: %s", script)
	}

	m.monitor.Infof("started %d worker(s) for: %s - total active workers: %d",
		started, script, len(m.workers))
}

// closeInterpreter releases an interpreter that never made it into a
// worker, failures only warrant a diagnostic.
func (m *Manager) closeInterpreter(interpreter interpreters.Interpreter) {
	if err := interpreter.Close(); err != nil {
		m.monitor.ReportWarning(err, "failed to close interpreter after startup failure")
	}
}

// Shutdown stops all currently tracked workers, best-effort: every worker
// gets a cooperative stop, an interrupt and a bounded join, and individual
// failures never abort the rest. The worker registry is cleared up front,
// after Shutdown returns no workers are tracked regardless of how many
// actually terminated.
func (m *Manager) Shutdown(ctx context.Context) {
	workers := m.workers
	m.workers = make(map[*Worker]*Thread)

	for worker, thread := range workers {
		m.monitor.Infof("stopping worker: %s (%s)", thread.Name(), worker)

		if m.Exported() {
			if err := worker.interpreter.Unbind(ExportedName); err != nil {
				m.monitor.ReportWarning(err, "ignoring unbind failure for: ", thread.Name())
			}
		}

		worker.Stop()
		// Embedded runtimes don't reliably observe the cooperative signal,
		// always interrupt the thread as well.
		thread.Interrupt()

		err := thread.Join(ctx, m.joinTimeout)
		switch {
		case err == nil:
			m.monitor.Infof("stopped worker: %s", thread.Name())
		case errors.Is(err, ErrJoinTimeout):
			m.monitor.Warnf("stopped worker: %s (join timed out, thread abandoned)", thread.Name())
		default:
			// The join itself was interrupted, move on to the next worker.
			m.monitor.Warnf("interrupted while stopping worker: %s", thread.Name())
		}
	}

	m.monitor.Infof("stopped %d worker(s)", len(workers))
}

// ActiveWorkers returns the number of currently tracked workers. Like
// Startup and Shutdown it must only be called from the control goroutine.
func (m *Manager) ActiveWorkers() int {
	return len(m.workers)
}

// Get resolves a configuration parameter. Exported so that scripts holding
// the manager binding can resolve configuration the same way the manager
// does.
func (m *Manager) Get(key string) string {
	return m.params.Get(key)
}

// Exported returns whether the manager binds itself into each worker's
// interpreter under ExportedName.
func (m *Manager) Exported() bool {
	return m.exported
}

// SetExported toggles the export binding. Only applies if called before
// Startup.
func (m *Manager) SetExported(exported bool) {
	m.exported = exported
}

// ThreadCount returns the configured number of worker threads per script.
// The parameter is read and parsed once, unparseable or absent values
// default to 1 with a diagnostic logged on parse failure only.
func (m *Manager) ThreadCount() int {
	if m.threadCount == nil {
		count := 1
		if value := m.params.Get(ThreadCountKey); value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				m.monitor.ReportWarning(err,
					"could not parse "+ThreadCountKey+" parameter value = "+value)
			} else {
				count = n
			}
		}
		m.threadCount = &count
	}
	return *m.threadCount
}

// SetThreadCount overrides the configured thread count. Only applies if
// called before Startup.
func (m *Manager) SetThreadCount(count int) {
	m.threadCount = &count
}

// ThreadPriority returns the configured advisory thread priority. The
// parameter is read and parsed once, recognized tokens are NORM, MIN and
// MAX (case-insensitive), anything else is parsed as an integer.
// Unparseable or absent values default to NormPriority with a diagnostic
// logged on parse failure only.
func (m *Manager) ThreadPriority() Priority {
	if m.threadPriority == nil {
		priority := NormPriority
		if value := m.params.Get(ThreadPriorityKey); value != "" {
			switch strings.ToUpper(value) {
			case "NORM":
				priority = NormPriority
			case "MIN":
				priority = MinPriority
			case "MAX":
				priority = MaxPriority
			default:
				n, err := strconv.Atoi(value)
				if err != nil {
					m.monitor.ReportWarning(err,
						"could not parse "+ThreadPriorityKey+" parameter value = '"+value+"'")
				} else {
					priority = Priority(n)
				}
			}
		}
		m.threadPriority = &priority
	}
	return *m.threadPriority
}

// SetThreadPriority overrides the configured thread priority. Only applies
// if called before Startup.
func (m *Manager) SetThreadPriority(priority Priority) {
	m.threadPriority = &priority
}

// SetThreadPrefix overrides the worker thread name prefix. Only applies if
// called before Startup.
func (m *Manager) SetThreadPrefix(prefix string) {
	m.threadPrefix = prefix
}

// UseHostLogger returns true when the ForceHostLoggerKey parameter is set
// to a true value, selecting the host-provided logger as diagnostics sink.
func (m *Manager) UseHostLogger() bool {
	value, err := strconv.ParseBool(m.params.Get(ForceHostLoggerKey))
	return err == nil && value
}

func (m *Manager) newThreadFactory() *ThreadFactory {
	return NewThreadFactory(m.threadPrefix, m.ThreadPriority())
}
