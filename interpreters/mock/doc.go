// Package mockinterp implements a mock interpreters.Provider that doesn't
// interpret anything, but allows us to test the worker lifecycle manager
// without embedding a real scripting runtime.
package mockinterp
