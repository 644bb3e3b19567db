package worker

import (
	"os"
	"strings"
)

// Configuration parameter keys, all string-valued and optional.
const (
	// WorkerKey holds a comma-separated list of builtin worker names.
	WorkerKey = "worker"
	// ScriptKey holds literal script text to execute (should be a loop of
	// some kind). For scripts kept in a separate file use ScriptPathKey.
	ScriptKey = "worker.script"
	// ScriptPathKey holds a URL or filesystem path to the worker script.
	// The script is read and executed as a string, don't rely on features
	// that depend on the script's on-disk location.
	ScriptPathKey = "worker.script.path"
	// ThreadCountKey holds how many worker threads to create per script.
	ThreadCountKey = "worker.thread.count"
	// ThreadPriorityKey holds a thread priority: NORM, MIN, MAX or an
	// integer between MinPriority and MaxPriority.
	ThreadPriorityKey = "worker.thread.priority"
	// ForceHostLoggerKey is a boolean, when true diagnostics are routed to
	// the host-provided logger instead of the manager's monitor.
	ForceHostLoggerKey = "worker.logger.forcehost"
)

// Params is the configuration parameter source, a key to string lookup.
// Missing keys yield the empty string.
type Params interface {
	Get(key string) string
}

// ParamsFunc adapts a function to the Params interface.
type ParamsFunc func(key string) string

// Get calls f.
func (f ParamsFunc) Get(key string) string { return f(key) }

// MapParams is a Params backed by a plain map.
type MapParams map[string]string

// Get returns the mapped value, or the empty string.
func (m MapParams) Get(key string) string { return m[key] }

// EnvParams resolves parameters from environment variables, mapping keys
// like "worker.thread.count" to "WORKER_THREAD_COUNT".
type EnvParams struct{}

// Get reads the environment variable derived from key.
func (EnvParams) Get(key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	return os.Getenv(name)
}
