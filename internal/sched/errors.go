package sched

import "errors"

// ErrNoSeeds is returned by Driver.Run when called with no seed units.
var ErrNoSeeds = errors.New("sched: no seed units provided")

// ErrCyclicDependencies wraps a depgraph cycle error surfaced during the
// pre-flight acyclicity check, before any task is dispatched.
var ErrCyclicDependencies = errors.New("sched: dependency graph contains a cycle")

// ErrSessionCanceled is recorded against any unit still outstanding when the
// session context is canceled.
var ErrSessionCanceled = errors.New("sched: session canceled")
