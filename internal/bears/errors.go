package bears

import "errors"

// ErrSelfDependency is returned by Initialize when a unit's declared
// dependency types resolve back to itself, the degenerate one-node case of
// a cycle among dependency types. The tracker's self-loop invariant
// forbids it outright rather than letting it surface later as a permanent
// stall.
var ErrSelfDependency = errors.New("bears: unit depends on its own type")

// ErrUngroupableKey is returned when a Scope() or FileDict() value is not
// usable as a Go map key. Both are opaque values compared only by equality,
// which in Go means they must be comparable.
var ErrUngroupableKey = errors.New("bears: scope or file-dict value is not comparable")
