// Package bears defines the analyzer-unit ("bear") capability contract and
// the dependency initializer that turns a set of seed units into a
// dependency tracker plus an initially-ready set.
package bears

import "context"

// Task is one invocation of a unit's ExecuteTask, as produced by
// GenerateTasks. Args and Kwargs are opaque to the core and interpreted
// only by the unit that produced them.
type Task struct {
	Args   []any
	Kwargs map[string]any
}

// Result is one output record produced by executing a Task. The core never
// inspects a Result's contents; only the caller-supplied Sink does.
type Result = any

// Sink receives one Result at a time, on the scheduler's coordinator
// goroutine. A Sink must not block for long: a slow Sink stalls the
// entire scheduler.
type Sink func(Result)

// DependencyType describes a unit type that, when invoked as
// New(scope, fileDict), yields a valid unit instance. Go has no runtime
// link from a declared dependency back to a type's own static dependency
// list, so DependencyType carries that declaration explicitly:
//
//   - Key identifies the type. Two DependencyType values naming the same
//     underlying bear type MUST share the same Key so the initializer's
//     one-instance-per-(scope,type) rule holds.
//   - New constructs an instance bound to the given scope and file
//     dictionary.
//   - Deps returns the dependency types that an instance of this type
//     would itself declare via Dependencies — the static equivalent of a
//     Python class's DEPENDENCIES attribute, consulted by the initializer
//     without needing to construct an instance first.
type DependencyType struct {
	Key  string
	New  func(scope, fileDict any) (Unit, error)
	Deps func() []DependencyType
}

// Unit is the capability contract every analyzer instance must satisfy.
//
// Scope and FileDict are opaque grouping keys: the core only ever compares
// them for equality, so their concrete values must be valid Go map keys
// (no slices, maps, or funcs).
type Unit interface {
	// Name is a human-readable identifier, used only for logging and
	// diagnostics — never for dependency identity.
	Name() string

	// Key identifies this unit's type for dependency resolution. It MUST
	// equal the Key of the DependencyType other units use to request an
	// instance of this unit's type.
	Key() string

	Scope() any
	FileDict() any

	// Dependencies lists the types this unit needs an instance of. An
	// empty slice means the unit has no predecessors and is immediately
	// schedulable.
	Dependencies() []DependencyType

	// GenerateTasks is called exactly once per scheduling session and
	// yields the finite sequence of subtask invocations to submit to the
	// worker pool. A unit with no tasks is treated as immediately
	// complete.
	GenerateTasks() ([]Task, error)

	// ExecuteTask runs on a worker. It must be safe to call concurrently
	// with ExecuteTask calls for other units, but is never called
	// concurrently with another ExecuteTask call for the same unit's same
	// task.
	ExecuteTask(ctx context.Context, t Task) ([]Result, error)
}
