package interpreters

import (
	"fmt"
	"sync"
)

var (
	mProviders = sync.Mutex{}
	providers  = make(map[string]Provider)
)

// Register will register a Provider, this is intended to be called from
// func init() {}, to register providers as an import side-effect.
//
// If a provider with the given name is already registered this will panic.
func Register(name string, provider Provider) {
	mProviders.Lock()
	defer mProviders.Unlock()

	// Panic, if name is in use. This is okay as we always call this from
	// init() so it'll happen before any tests or code runs.
	if _, ok := providers[name]; ok {
		panic(fmt.Sprintf(
			"An interpreter provider with the name '%s' is already registered", name,
		))
	}

	providers[name] = provider
}

// Providers returns a map of registered interpreter Providers.
func Providers() map[string]Provider {
	mProviders.Lock()
	defer mProviders.Unlock()

	// Clone map before returning
	m := make(map[string]Provider)
	for name, provider := range providers {
		m[name] = provider
	}
	return m
}
