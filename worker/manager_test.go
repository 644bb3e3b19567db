package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddossot/jruby-rack-worker/interpreters"
	"github.com/ddossot/jruby-rack-worker/interpreters/mock"
	"github.com/ddossot/jruby-rack-worker/runtime/mocks"
)

func newManagerWithProvider(t *testing.T, params Params, provider *mockinterp.Provider) (*Manager, *mocks.MockMonitor) {
	monitor := mocks.NewMockMonitor(false)
	m, err := New(Options{
		Params:   params,
		Provider: provider,
		Monitor:  monitor,
	})
	require.NoError(t, err)
	m.joinTimeout = 100 * time.Millisecond
	t.Cleanup(provider.Release)
	return m, monitor
}

func TestStartupSingleBuiltinWorker(t *testing.T) {
	provider := mockinterp.New()
	m, _ := newManagerWithProvider(t, MapParams{WorkerKey: "sidekiq"}, provider)

	m.Startup(context.Background())
	assert.Equal(t, 1, m.ActiveWorkers())

	created := provider.Created()
	require.Len(t, created, 1)
	// the worker thread runs asynchronously, wait for it to pick the script up
	assert.Eventually(t, func() bool {
		scripts := created[0].Scripts()
		return len(scripts) == 1 && scripts[0] == "sidekiq/start_worker.rb"
	}, time.Second, time.Millisecond)

	m.Shutdown(context.Background())
	assert.Equal(t, 0, m.ActiveWorkers())
}

func TestStartupFansOutThreadCount(t *testing.T) {
	provider := mockinterp.New()
	m, _ := newManagerWithProvider(t, MapParams{
		WorkerKey:      "delayed_job,resque",
		ThreadCountKey: "2",
	}, provider)

	m.Startup(context.Background())
	assert.Equal(t, 4, m.ActiveWorkers())
	assert.Len(t, provider.Created(), 4)

	m.Shutdown(context.Background())
	assert.Equal(t, 0, m.ActiveWorkers())
}

func TestStartupUnconfiguredIsNoop(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{}, provider)

	m.Startup(context.Background())
	assert.Equal(t, 0, m.ActiveWorkers())
	assert.Empty(t, provider.Created())
	assert.True(t, monitor.HasEntry("info", "no worker script to execute"))
}

func TestStartupExportsManager(t *testing.T) {
	provider := mockinterp.New()
	m, _ := newManagerWithProvider(t, MapParams{WorkerKey: "navvy"}, provider)

	m.Startup(context.Background())
	created := provider.Created()
	require.Len(t, created, 1)

	bound, ok := created[0].Bound(ExportedName)
	require.True(t, ok, "expected manager to be exported")
	assert.Same(t, m, bound)

	m.Shutdown(context.Background())
	assert.True(t, created[0].WasUnbound(ExportedName))
}

func TestStartupNotExported(t *testing.T) {
	provider := mockinterp.New()
	m, _ := newManagerWithProvider(t, MapParams{WorkerKey: "navvy"}, provider)
	m.SetExported(false)

	m.Startup(context.Background())
	created := provider.Created()
	require.Len(t, created, 1)

	_, ok := created[0].Bound(ExportedName)
	assert.False(t, ok, "manager must not be exported")

	m.Shutdown(context.Background())
	assert.False(t, created[0].WasUnbound(ExportedName))
}

func TestStartupUnsupportedRuntimeAbortsFanOut(t *testing.T) {
	provider := mockinterp.New()
	provider.NewError = interpreters.ErrNotSupported
	provider.FailAfter = 1
	m, monitor := newManagerWithProvider(t, MapParams{
		WorkerKey:      "sidekiq",
		ThreadCountKey: "3",
	}, provider)

	m.Startup(context.Background())
	assert.Equal(t, 1, m.ActiveWorkers())
	assert.True(t, monitor.HasEntry("warn", "failed to obtain interpreter runtime"))

	m.Shutdown(context.Background())
}

func TestStartupBindFailureAbortsFanOut(t *testing.T) {
	provider := mockinterp.New()
	provider.BindError = assert.AnError
	m, monitor := newManagerWithProvider(t, MapParams{
		WorkerKey:      "sidekiq",
		ThreadCountKey: "2",
	}, provider)

	m.Startup(context.Background())
	assert.Equal(t, 0, m.ActiveWorkers())
	assert.True(t, monitor.HasEntry("error", "worker startup failed"))

	// the abandoned interpreter must be released
	created := provider.Created()
	require.Len(t, created, 1)
	assert.True(t, created[0].Closed())
}

func TestStartupCanceledContext(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{
		WorkerKey:      "sidekiq",
		ThreadCountKey: "3",
	}, provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Startup(ctx)

	assert.Equal(t, 0, m.ActiveWorkers())
	assert.Empty(t, provider.Created())
	assert.True(t, monitor.HasEntry("warn", "interrupted while starting workers"))
}

func TestThreadCountZeroStartsNoWorkers(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{
		WorkerKey:      "sidekiq",
		ThreadCountKey: "0",
	}, provider)

	m.Startup(context.Background())
	assert.Equal(t, 0, m.ActiveWorkers())
	assert.Empty(t, provider.Created())
	assert.True(t, monitor.HasEntry("info", "starting 0 worker(s)"))

	m.Shutdown(context.Background())
	assert.True(t, monitor.HasEntry("info", "stopped 0 worker(s)"))
}

func TestShutdownStubbornWorkerTimesOut(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{
		WorkerKey:      "sidekiq",
		ThreadCountKey: "3",
	}, provider)

	m.Startup(context.Background())
	created := provider.Created()
	require.Len(t, created, 3)

	// One worker ignores both the cooperative signal and the interrupt.
	created[0].SetBehavior(mockinterp.BehaviorStubborn)
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	m.Shutdown(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, 0, m.ActiveWorkers(), "registry must be empty after shutdown")
	assert.GreaterOrEqual(t, elapsed, m.joinTimeout, "stubborn worker join must run out the bounded wait")
	assert.Less(t, elapsed, 10*m.joinTimeout, "shutdown must not block indefinitely")

	assert.Equal(t, 3, monitor.CountMatching("", "stopped worker:"))
	assert.Equal(t, 1, monitor.CountMatching("warn", "join timed out"))
}

func TestShutdownInterruptedJoinContinues(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{
		WorkerKey:      "sidekiq",
		ThreadCountKey: "2",
	}, provider)

	m.Startup(context.Background())
	for _, i := range provider.Created() {
		i.SetBehavior(mockinterp.BehaviorStubborn)
	}
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Shutdown(ctx)

	assert.Equal(t, 0, m.ActiveWorkers())
	assert.Equal(t, 2, monitor.CountMatching("warn", "interrupted while stopping worker"))
	assert.True(t, monitor.HasEntry("info", "stopped 2 worker(s)"))
}

func TestShutdownWithoutStartup(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{}, provider)

	m.Shutdown(context.Background())
	assert.True(t, monitor.HasEntry("info", "stopped 0 worker(s)"))
}

func TestThreadCountParsing(t *testing.T) {
	provider := mockinterp.New()

	m, _ := newManagerWithProvider(t, MapParams{ThreadCountKey: "4"}, provider)
	assert.Equal(t, 4, m.ThreadCount())

	m, _ = newManagerWithProvider(t, MapParams{}, provider)
	assert.Equal(t, 1, m.ThreadCount())

	m, monitor := newManagerWithProvider(t, MapParams{ThreadCountKey: "abc"}, provider)
	assert.Equal(t, 1, m.ThreadCount())
	assert.True(t, monitor.HasEntry("warn", "could not parse "+ThreadCountKey))
}

func TestThreadCountMemoized(t *testing.T) {
	provider := mockinterp.New()
	calls := 0
	params := ParamsFunc(func(key string) string {
		if key == ThreadCountKey {
			calls++
			return "2"
		}
		return ""
	})
	m, _ := newManagerWithProvider(t, params, provider)

	assert.Equal(t, 2, m.ThreadCount())
	assert.Equal(t, 2, m.ThreadCount())
	assert.Equal(t, 1, calls, "thread count parameter must be read once")
}

func TestThreadCountUnparseableStartsOneWorker(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{
		WorkerKey:      "sidekiq",
		ThreadCountKey: "abc",
	}, provider)

	m.Startup(context.Background())
	assert.Equal(t, 1, m.ActiveWorkers())
	assert.True(t, monitor.HasEntry("warn", "could not parse "+ThreadCountKey))

	m.Shutdown(context.Background())
}

func TestThreadPriorityParsing(t *testing.T) {
	provider := mockinterp.New()

	m, _ := newManagerWithProvider(t, MapParams{ThreadPriorityKey: "MAX"}, provider)
	assert.Equal(t, MaxPriority, m.ThreadPriority())

	m, _ = newManagerWithProvider(t, MapParams{ThreadPriorityKey: "min"}, provider)
	assert.Equal(t, MinPriority, m.ThreadPriority())

	m, _ = newManagerWithProvider(t, MapParams{ThreadPriorityKey: "7"}, provider)
	assert.Equal(t, Priority(7), m.ThreadPriority())

	m, _ = newManagerWithProvider(t, MapParams{}, provider)
	assert.Equal(t, NormPriority, m.ThreadPriority())

	m, monitor := newManagerWithProvider(t, MapParams{ThreadPriorityKey: "bogus"}, provider)
	assert.Equal(t, NormPriority, m.ThreadPriority())
	assert.True(t, monitor.HasEntry("warn", "could not parse "+ThreadPriorityKey))
}

func TestSettersOverrideParams(t *testing.T) {
	provider := mockinterp.New()
	m, _ := newManagerWithProvider(t, MapParams{
		ThreadCountKey:    "4",
		ThreadPriorityKey: "MAX",
	}, provider)

	m.SetThreadCount(2)
	m.SetThreadPriority(MinPriority)

	assert.Equal(t, 2, m.ThreadCount())
	assert.Equal(t, MinPriority, m.ThreadPriority())
}

func TestSetThreadPrefixNamesThreads(t *testing.T) {
	provider := mockinterp.New()
	m, monitor := newManagerWithProvider(t, MapParams{WorkerKey: "resque"}, provider)
	m.SetThreadPrefix("jobs")

	m.Startup(context.Background())
	m.Shutdown(context.Background())
	assert.True(t, monitor.HasEntry("info", "stopping worker: jobs-1"))
}

func TestManagerGetParamPassthrough(t *testing.T) {
	provider := mockinterp.New()
	m, _ := newManagerWithProvider(t, MapParams{"custom.key": "value"}, provider)
	assert.Equal(t, "value", m.Get("custom.key"))
}

func TestUseHostLogger(t *testing.T) {
	provider := mockinterp.New()

	m, _ := newManagerWithProvider(t, MapParams{}, provider)
	assert.False(t, m.UseHostLogger())

	m, _ = newManagerWithProvider(t, MapParams{ForceHostLoggerKey: "true"}, provider)
	assert.True(t, m.UseHostLogger())

	m, _ = newManagerWithProvider(t, MapParams{ForceHostLoggerKey: "nonsense"}, provider)
	assert.False(t, m.UseHostLogger())
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Provider: mockinterp.New()})
	assert.Error(t, err)

	_, err = New(Options{Params: MapParams{}})
	assert.Error(t, err)
}

func TestWorkerStopRequested(t *testing.T) {
	provider := mockinterp.New()
	i, err := provider.NewInterpreter(interpreters.Options{})
	require.NoError(t, err)

	w, err := NewWorker(i, "run loop", "", mocks.NewMockMonitor(false))
	require.NoError(t, err)

	assert.False(t, w.StopRequested())
	w.Stop()
	assert.True(t, w.StopRequested())

	// the stop predicate is bound for scripts to poll
	bound, ok := i.(*mockinterp.Interpreter).Bound(StopBindingName)
	require.True(t, ok)
	assert.True(t, bound.(func() bool)())
}

func TestNewWorkerRequiresScript(t *testing.T) {
	provider := mockinterp.New()
	i, err := provider.NewInterpreter(interpreters.Options{})
	require.NoError(t, err)

	_, err = NewWorker(i, "", "", mocks.NewMockMonitor(false))
	assert.Error(t, err)
}
