// Package interpreters declares the interfaces between the worker
// lifecycle manager and embedded scripting runtimes.
//
// A Provider hands out Interpreter instances, one per worker thread. The
// manager never cares what language an interpreter runs, it only binds its
// export into the host namespace, hands the interpreter a script and
// cancels the execution context when shutting down.
package interpreters
