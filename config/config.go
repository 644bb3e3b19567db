package config

import (
	"sort"
	"strconv"

	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/ddossot/jruby-rack-worker/interpreters"
	"github.com/ddossot/jruby-rack-worker/worker"
)

// File is the typed view of a loaded configuration file.
type File struct {
	Worker          workerSection          `json:"worker"`
	Interpreter     string                 `json:"interpreter"`
	Interpreters    map[string]interface{} `json:"interpreters"`
	LogLevel        string                 `json:"logLevel"`
	ThreadPrefix    string                 `json:"threadPrefix"`
	ForceHostLogger bool                   `json:"forceHostLogger"`
}

type workerSection struct {
	Workers        string `json:"workers"`
	Script         string `json:"script"`
	ScriptPath     string `json:"scriptPath"`
	ThreadCount    int    `json:"threadCount"`
	ThreadPriority string `json:"threadPriority"`
}

// Schema returns the configuration file schema. The interpreter sections
// are built from the registered interpreter providers, import providers
// for their side-effect before calling this.
func Schema() schematypes.Object {
	interpreterConfig := schematypes.Properties{}
	interpreterNames := []string{}
	for name, provider := range interpreters.Providers() {
		interpreterConfig[name] = provider.ConfigSchema()
		interpreterNames = append(interpreterNames, name)
	}
	sort.Strings(interpreterNames)

	return schematypes.Object{
		Title:       "Worker Manager Configuration",
		Description: "Configuration for the worker lifecycle manager daemon.",
		Properties: schematypes.Properties{
			"worker": schematypes.Object{
				Title:       "Worker Configuration",
				Description: "Which worker scripts to run and how many threads to fan out.",
				Properties: schematypes.Properties{
					"workers": schematypes.String{
						Title:       "Builtin Workers",
						Description: "Comma-separated list of builtin worker names, e.g. 'sidekiq,resque'.",
					},
					"script": schematypes.String{
						Title:       "Inline Script",
						Description: "Literal worker script text, should be a loop of some kind.",
					},
					"scriptPath": schematypes.String{
						Title:       "Script Path",
						Description: "URL or filesystem path to the worker script.",
					},
					"threadCount": schematypes.Integer{
						Title:       "Thread Count",
						Description: "Worker threads to create per script, defaults to 1.",
						Minimum:     0,
						Maximum:     1024,
					},
					"threadPriority": schematypes.String{
						Title:       "Thread Priority",
						Description: "NORM, MIN, MAX or an integer priority.",
					},
				},
			},
			"interpreter": schematypes.StringEnum{
				Options: interpreterNames,
			},
			"interpreters": schematypes.Object{
				Title: "Interpreter Configuration",
				Description: "Mapping from interpreter provider name to provider configuration. " +
					"The file can hold configuration for all providers, only the one named " +
					"by 'interpreter' is used.",
				Properties: interpreterConfig,
			},
			"logLevel": schematypes.StringEnum{
				Options: []string{"debug", "info", "warning", "error", "fatal", "panic"},
			},
			"threadPrefix": schematypes.String{
				Title:       "Thread Name Prefix",
				Description: "Prefix for worker thread names, defaults to 'worker'.",
			},
			"forceHostLogger": schematypes.Boolean{
				Title:       "Force Host Logger",
				Description: "Route diagnostics to the host-provided logger instead of the structured monitor.",
			},
		},
		Required: []string{"interpreter"},
	}
}

// Params exposes the loaded file as the flat parameter source the manager
// reads.
func (f *File) Params() worker.Params {
	params := worker.MapParams{}
	if f.Worker.Workers != "" {
		params[worker.WorkerKey] = f.Worker.Workers
	}
	if f.Worker.Script != "" {
		params[worker.ScriptKey] = f.Worker.Script
	}
	if f.Worker.ScriptPath != "" {
		params[worker.ScriptPathKey] = f.Worker.ScriptPath
	}
	if f.Worker.ThreadCount != 0 {
		params[worker.ThreadCountKey] = strconv.Itoa(f.Worker.ThreadCount)
	}
	if f.Worker.ThreadPriority != "" {
		params[worker.ThreadPriorityKey] = f.Worker.ThreadPriority
	}
	if f.ForceHostLogger {
		params[worker.ForceHostLoggerKey] = "true"
	}
	return params
}

// InterpreterConfig returns the configuration block for the selected
// interpreter provider, nil if none was given.
func (f *File) InterpreterConfig() interface{} {
	if f.Interpreters == nil {
		return nil
	}
	return f.Interpreters[f.Interpreter]
}
