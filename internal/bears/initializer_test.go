package bears_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relex-dev/bearcore/internal/bears"
)

type stubUnit struct {
	name     string
	key      string
	scope    any
	fileDict any
	deps     []bears.DependencyType
}

func (u *stubUnit) Name() string                        { return u.name }
func (u *stubUnit) Key() string                          { return u.key }
func (u *stubUnit) Scope() any                           { return u.scope }
func (u *stubUnit) FileDict() any                        { return u.fileDict }
func (u *stubUnit) Dependencies() []bears.DependencyType { return u.deps }
func (u *stubUnit) GenerateTasks() ([]bears.Task, error) { return nil, nil }
func (u *stubUnit) ExecuteTask(context.Context, bears.Task) ([]bears.Result, error) {
	return nil, nil
}

func stubDepType(key string, deps []bears.DependencyType) bears.DependencyType {
	inst := &stubUnit{name: key, key: key, deps: deps}
	return bears.DependencyType{
		Key:  key,
		New:  func(any, any) (bears.Unit, error) { return inst, nil },
		Deps: func() []bears.DependencyType { return deps },
	}
}

func TestInitialize_SingleIndependentUnit(t *testing.T) {
	a := &stubUnit{name: "A", key: "A"}

	tracker, ready, err := bears.Initialize([]bears.Unit{a})
	require.NoError(t, err)
	assert.Equal(t, []bears.Unit{a}, ready)
	assert.Empty(t, tracker.GetDependencies(a))
}

func TestInitialize_LinearChain(t *testing.T) {
	aType := stubDepType("A", nil)
	b := &stubUnit{name: "B", key: "B", deps: []bears.DependencyType{aType}}

	tracker, ready, err := bears.Initialize([]bears.Unit{b})
	require.NoError(t, err)

	require.Len(t, ready, 1)
	assert.Equal(t, "A", ready[0].Key())
	assert.NotEmpty(t, tracker.GetDependencies(b))
}

func TestInitialize_Diamond_OneAInstance(t *testing.T) {
	aType := stubDepType("A", nil)
	bType := stubDepType("B", []bears.DependencyType{aType})
	cType := stubDepType("C", []bears.DependencyType{aType})
	d := &stubUnit{name: "D", key: "D", deps: []bears.DependencyType{bType, cType}}

	tracker, ready, err := bears.Initialize([]bears.Unit{d})
	require.NoError(t, err)

	require.Len(t, ready, 1)
	assert.Equal(t, "A", ready[0].Key())

	all := tracker.GetAllDependencies()
	aCount := 0
	for node := range all {
		if node.(bears.Unit).Key() == "A" {
			aCount++
		}
	}
	assert.Equal(t, 1, aCount, "exactly one A instance should be tracked")
}

func TestInitialize_UserSuppliedInstanceReused(t *testing.T) {
	aInst := &stubUnit{name: "A", key: "A"}
	aAsDepType := bears.DependencyType{
		Key:  "A",
		New:  func(any, any) (bears.Unit, error) { return aInst, nil },
		Deps: func() []bears.DependencyType { return nil },
	}
	b := &stubUnit{name: "B", key: "B", deps: []bears.DependencyType{aAsDepType}}

	tracker, ready, err := bears.Initialize([]bears.Unit{aInst, b})
	require.NoError(t, err)

	assert.Contains(t, ready, bears.Unit(aInst))
	assert.Contains(t, tracker.GetDependencies(b), bears.Unit(aInst))
}

func TestInitialize_TwoScopesSameDependencyType(t *testing.T) {
	aScope1 := stubDepType("A", nil)
	aScope2 := stubDepType("A", nil)

	b1 := &stubUnit{name: "B1", key: "B1", scope: "scope1", deps: []bears.DependencyType{aScope1}}
	b2 := &stubUnit{name: "B2", key: "B2", scope: "scope2", deps: []bears.DependencyType{aScope2}}

	tracker, _, err := bears.Initialize([]bears.Unit{b1, b2})
	require.NoError(t, err)

	deps1 := tracker.GetDependencies(b1)
	deps2 := tracker.GetDependencies(b2)
	require.Len(t, deps1, 1)
	require.Len(t, deps2, 1)

	var a1, a2 bears.Unit
	for n := range deps1 {
		a1 = n.(bears.Unit)
	}
	for n := range deps2 {
		a2 = n.(bears.Unit)
	}
	assert.NotSame(t, a1, a2, "each scope must get its own A instance")
}

// Two seeds sharing the same Key in one scope must each keep their own
// declared dependencies: the second seed is not allowed to short-circuit
// into the ready set just because the first seed's edge to the same
// dependency type was already traversed.
func TestInitialize_TwoSeedsSameKeySameScope_BothKeepOwnDependencies(t *testing.T) {
	aType := stubDepType("A", nil)

	b1 := &stubUnit{name: "B-first", key: "B", scope: "scope", deps: []bears.DependencyType{aType}}
	b2 := &stubUnit{name: "B-second", key: "B", scope: "scope", deps: []bears.DependencyType{aType}}

	tracker, ready, err := bears.Initialize([]bears.Unit{b1, b2})
	require.NoError(t, err)

	assert.NotEmpty(t, tracker.GetDependencies(b1), "first seed must still depend on A")
	assert.NotEmpty(t, tracker.GetDependencies(b2), "second seed must still depend on A, not be released early")

	for _, u := range ready {
		assert.NotEqual(t, "B", u.Key(), "neither same-key seed should be ready before its dependency resolves")
	}
}

func TestInitialize_SelfDependencyRejected(t *testing.T) {
	var selfType bears.DependencyType
	a := &stubUnit{name: "A", key: "A"}
	selfType = bears.DependencyType{
		Key:  "A",
		New:  func(any, any) (bears.Unit, error) { return a, nil },
		Deps: func() []bears.DependencyType { return []bears.DependencyType{selfType} },
	}
	a.deps = []bears.DependencyType{selfType}

	_, _, err := bears.Initialize([]bears.Unit{a})
	require.Error(t, err)
	assert.ErrorIs(t, err, bears.ErrSelfDependency)
}

func TestInitialize_DeduplicatesSeedsByIdentity(t *testing.T) {
	a := &stubUnit{name: "A", key: "A"}

	_, ready, err := bears.Initialize([]bears.Unit{a, a})
	require.NoError(t, err)
	assert.Len(t, ready, 1)
}
