// Package worker implements the lifecycle manager for long-running worker
// threads, each handing off execution to an embedded scripting runtime.
//
// A Manager resolves configured worker scripts, fans each one out to a
// configured number of (interpreter, thread) pairs, and on shutdown stops
// every tracked worker cooperatively before interrupting and joining its
// thread with a bounded timeout.
package worker
