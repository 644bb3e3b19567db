package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	schematypes "github.com/taskcluster/go-schematypes"
	yaml "gopkg.in/yaml.v2"
)

// Load parses a YAML configuration object, validates it against Schema()
// and returns the typed view.
func Load(data []byte) (*File, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML config")
	}
	// This fixes obscurities in yaml.Unmarshal where it generates
	// map[interface{}]interface{} instead of map[string]interface{}
	raw = convertSimpleJSONTypes(raw)

	schema := Schema()
	if err := schema.Validate(raw); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	var file File
	if err := schematypes.MustMap(schema, raw, &file); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &file, nil
}

// LoadFromFile loads configuration options from a YAML file and validates
// them against the config file schema, returning an error explaining what
// went wrong if unsuccessful.
func LoadFromFile(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file '%s'", filename)
	}
	return Load(data)
}

func convertSimpleJSONTypes(val interface{}) interface{} {
	switch val := val.(type) {
	case []interface{}:
		r := make([]interface{}, len(val))
		for i, v := range val {
			r[i] = convertSimpleJSONTypes(v)
		}
		return r
	case map[interface{}]interface{}:
		r := make(map[string]interface{})
		for k, v := range val {
			s, ok := k.(string)
			if !ok {
				s = fmt.Sprintf("%v", k)
			}
			r[s] = convertSimpleJSONTypes(v)
		}
		return r
	case int:
		return float64(val)
	default:
		return val
	}
}
