package worker

import "strings"

// builtinWorkers maps canonical worker identifiers to bundled resource
// paths. Identifiers are canonicalized with canonicalID before lookup.
// Never mutated at runtime.
var builtinWorkers = map[string]string{
	"delayed_job": "delayed/start_worker.rb",
	"delayed":     "delayed/start_worker.rb", // alias
	"navvy":       "navvy/start_worker.rb",
	"resque":      "resque/start_worker.rb",
	"sidekiq":     "sidekiq/start_worker.rb",
}

// canonicalID normalizes a configured worker identifier for registry
// lookup: namespace separators become underscores and the result is
// lowercased, e.g. "Sidekiq::Thing" -> "sidekiq_thing".
func canonicalID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "::", "_"))
}

// BuiltinWorkers returns a copy of the builtin worker registry.
func BuiltinWorkers() map[string]string {
	m := make(map[string]string, len(builtinWorkers))
	for id, path := range builtinWorkers {
		m[id] = path
	}
	return m
}
