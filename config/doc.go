// Package config loads and validates the daemon's YAML configuration file
// and adapts it to the flat parameter source the worker manager reads.
package config
