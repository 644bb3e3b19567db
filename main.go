// jruby-rack-worker daemon: starts a pool of worker threads, each running
// a job-processing script inside an embedded interpreter, and stops them
// gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/ddossot/jruby-rack-worker/config"
	"github.com/ddossot/jruby-rack-worker/interpreters"
	"github.com/ddossot/jruby-rack-worker/runtime"
	"github.com/ddossot/jruby-rack-worker/worker"

	// Register interpreter providers as an import side-effect.
	_ "github.com/ddossot/jruby-rack-worker/interpreters/goscript"
	_ "github.com/ddossot/jruby-rack-worker/interpreters/mock"
)

const version = "jruby-rack-worker"

// shutdownGracePeriod bounds the whole shutdown pass, individual workers
// are already bounded by the manager's per-worker join timeout.
const shutdownGracePeriod = 30 * time.Second

func usage() string {
	return `Worker lifecycle manager daemon.

Usage:
  jruby-rack-worker [--config <file>] [--logging-level <level>]

Options:
  -c <file>, --config=<file>            YAML configuration file [default: worker.yml]
  -l <level>, --logging-level=<level>   Logging level, overrides the config file
`
}

func main() {
	args, _ := docopt.Parse(usage(), nil, true, version, false)
	configFile, _ := args["--config"].(string)
	logLevel := ""
	if l := args["--logging-level"]; l != nil {
		logLevel = l.(string)
	}

	if err := run(configFile, logLevel); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configFile, logLevel string) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}

	monitor := runtime.NewLoggingMonitor(logLevel, map[string]string{
		"interpreter": cfg.Interpreter,
	})
	hostLogger, err := runtime.CreateLogger(logLevel)
	if err != nil {
		return err
	}

	provider, ok := interpreters.Providers()[cfg.Interpreter]
	if !ok {
		return fmt.Errorf("unknown interpreter provider: %s", cfg.Interpreter)
	}

	manager, err := worker.New(worker.Options{
		Params:            cfg.Params(),
		Provider:          provider,
		InterpreterConfig: cfg.InterpreterConfig(),
		Monitor:           monitor,
		HostLogger:        hostLogger,
		ThreadPrefix:      cfg.ThreadPrefix,
	})
	if err != nil {
		return err
	}

	manager.Startup(context.Background())

	sm := runtime.NewLocalShutdownManager()
	<-sm.WaitForShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	manager.Shutdown(ctx)
	return nil
}
