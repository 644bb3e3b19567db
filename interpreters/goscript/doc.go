// Package goscript implements an interpreters.Provider backed by the
// yaegi Go interpreter.
//
// Each worker gets its own interpreter instance. Values bound by the
// manager are reachable from scripts through the synthetic "workerhost"
// package, see HostPackage.
package goscript
