package main

import (
	"context"
	"fmt"

	"github.com/relex-dev/bearcore/internal/bears"
)

// demoFileDict is a toy stand-in for a unit's decoded file view: just the
// line count of a fictitious file, derived from the scope name each time a
// demo unit's FileDict is called.
type demoFileDict struct {
	path  string
	lines int
}

// fileStatsUnit counts lines for a scope. It has no dependencies and is the
// leaf every other demo unit in the same scope builds on.
type fileStatsUnit struct {
	scope string
}

func fileStatsDependencyType(scope string) bears.DependencyType {
	return bears.DependencyType{
		Key: "file_stats:" + scope,
		New: func(any, any) (bears.Unit, error) {
			return &fileStatsUnit{scope: scope}, nil
		},
		Deps: func() []bears.DependencyType { return nil },
	}
}

func (u *fileStatsUnit) Name() string                        { return "file_stats[" + u.scope + "]" }
func (u *fileStatsUnit) Key() string                          { return "file_stats:" + u.scope }
func (u *fileStatsUnit) Scope() any                           { return u.scope }
func (u *fileStatsUnit) FileDict() any                        { return demoFileDict{path: u.scope, lines: len(u.scope) * 7} }
func (u *fileStatsUnit) Dependencies() []bears.DependencyType { return nil }

func (u *fileStatsUnit) GenerateTasks() ([]bears.Task, error) {
	return []bears.Task{{Args: []any{u.scope}}}, nil
}

func (u *fileStatsUnit) ExecuteTask(_ context.Context, _ bears.Task) ([]bears.Result, error) {
	dict := u.FileDict().(demoFileDict)
	return []bears.Result{fmt.Sprintf("%s: %d lines", dict.path, dict.lines)}, nil
}

// lintSummaryUnit depends on fileStatsUnit and reports a derived summary.
// It is the seed unit the demo run submits per scope.
type lintSummaryUnit struct {
	scope string
}

func (u *lintSummaryUnit) Name() string { return "lint_summary[" + u.scope + "]" }
func (u *lintSummaryUnit) Key() string  { return "lint_summary:" + u.scope }
func (u *lintSummaryUnit) Scope() any   { return u.scope }
func (u *lintSummaryUnit) FileDict() any {
	return demoFileDict{path: u.scope, lines: len(u.scope) * 7}
}

func (u *lintSummaryUnit) Dependencies() []bears.DependencyType {
	return []bears.DependencyType{fileStatsDependencyType(u.scope)}
}

func (u *lintSummaryUnit) GenerateTasks() ([]bears.Task, error) {
	return []bears.Task{{Args: []any{u.scope}}}, nil
}

func (u *lintSummaryUnit) ExecuteTask(_ context.Context, _ bears.Task) ([]bears.Result, error) {
	return []bears.Result{fmt.Sprintf("%s: summary ready", u.scope)}, nil
}

// demoSeeds builds one lintSummaryUnit per scope name, each of which pulls
// in its own fileStatsUnit dependency.
func demoSeeds(scopes []string) []bears.Unit {
	seeds := make([]bears.Unit, 0, len(scopes))
	for _, s := range scopes {
		seeds = append(seeds, &lintSummaryUnit{scope: s})
	}
	return seeds
}
