package goscript

import (
	schematypes "github.com/taskcluster/go-schematypes"

	"github.com/ddossot/jruby-rack-worker/interpreters"
)

type provider struct {
	interpreters.ProviderBase
}

func init() {
	interpreters.Register("goscript", provider{})
}

func (provider) ConfigSchema() schematypes.Schema {
	return configSchema
}

func (provider) NewInterpreter(options interpreters.Options) (interpreters.Interpreter, error) {
	var c configType
	if options.Config != nil {
		if err := schematypes.MustMap(configSchema, options.Config, &c); err != nil {
			return nil, err
		}
	}
	return newInterpreter(options.Monitor, c)
}
