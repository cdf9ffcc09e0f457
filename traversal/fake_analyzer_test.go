//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package traversal_test

import (
	"github.com/fdte/fdte/action"
	"github.com/fdte/fdte/analyzer"
	"github.com/fdte/fdte/token"
)

// assumeCall records one Assume invocation, for tests that want to assert the engine asked the
// Analyzer to commit to a particular branch outcome.
type assumeCall struct {
	tokIndex int
	tokStr   string
	result   bool
	flags    analyzer.AssumeFlags
}

// telemetry is shared (by pointer) across every fork of a fakeAnalyzer purely as an observation
// channel for tests: it records what happened across the whole traversal tree, but nothing in
// fakeAnalyzer's own decision logic ever reads it back, so sharing it does not let a speculative
// fork influence the parent's analysis.
type telemetry struct {
	visited []string
	updates []action.Action
	assumes []assumeCall
	forks   int
}

// fakeAnalyzer is a minimal Analyzer test double (spec.md §3) that tracks one named variable's
// possible integer values at a configurable precision (known/possible/inconclusive/invalid), the
// way a real ValueFlow/Lifetime Analyzer would, just for a single value instead of a whole program.
type fakeAnalyzer struct {
	// Var is the name of the single variable this Analyzer tracks.
	Var string
	// Modifying names functions whose calls are classified as action.Modified on the tracked
	// variable (an unknown-effect call, e.g. one taking the variable by pointer).
	Modifying map[string]bool
	// EmptyContainers maps a container token's literal text to whether EvaluateContainerEmpty
	// should report it empty.
	EmptyContainers map[string]bool

	// AllowFork is returned from UpdateScope. The traversal engine never calls UpdateScope, so it
	// has no effect on which scopes are forked.
	AllowFork bool
	// RefuseLowerPossible/RefuseLowerInconclusive let a test simulate an Analyzer that has nothing
	// left to track once asked to lower precision.
	RefuseLowerPossible      bool
	RefuseLowerInconclusive  bool
	Conditional              bool
	StopOnConditionResult    bool
	InvalidResult            bool

	values    []int64 // nil means "unknown"; precision tracked separately
	precision precisionLevel

	t *telemetry
}

type precisionLevel int

const (
	precisionKnown precisionLevel = iota
	precisionPossible
	precisionInconclusive
)

// newFakeAnalyzer returns a ready-to-drive Analyzer tracking varName, starting at Known precision
// with no candidate values (i.e. the initial value is whatever the first Update tells it).
func newFakeAnalyzer(varName string) *fakeAnalyzer {
	return &fakeAnalyzer{
		Var:             varName,
		Modifying:       map[string]bool{},
		EmptyContainers: map[string]bool{},
		AllowFork:       true,
		t:               &telemetry{},
	}
}

func (a *fakeAnalyzer) Evaluate(tok, _ *token.Token) []int64 {
	if tok == nil {
		return nil
	}
	if v, ok := tok.GetKnownIntValue(); ok {
		return []int64{v}
	}
	if tok.Str == a.Var {
		if len(a.values) == 0 {
			return nil
		}
		out := make([]int64, len(a.values))
		copy(out, a.values)
		return out
	}
	return nil
}

func (a *fakeAnalyzer) EvaluateContainerEmpty(tok *token.Token) []int64 {
	if tok == nil {
		return nil
	}
	empty, ok := a.EmptyContainers[tok.Str]
	if !ok {
		return nil
	}
	if empty {
		return []int64{1}
	}
	return []int64{0}
}

func calleeNameOf(tok *token.Token) string {
	if tok == nil || tok.Str != "(" || tok.AstOperand1 == nil {
		return ""
	}
	return tok.AstOperand1.Str
}

func (a *fakeAnalyzer) Analyze(tok *token.Token, _ analyzer.Direction) action.Action {
	switch {
	case tok.IsAssignmentOp() && tok.AstOperand1 != nil && tok.AstOperand1.Str == a.Var:
		return action.Write
	case (tok.Str == "++" || tok.Str == "--") && tok.AstOperand1 != nil && tok.AstOperand1.Str == a.Var:
		return action.Write
	case tok.Str == a.Var:
		return action.Read
	case tok.Str == "(" && a.Modifying[calleeNameOf(tok)]:
		return action.Modified
	default:
		return action.None
	}
}

func (a *fakeAnalyzer) Update(tok *token.Token, act action.Action, _ analyzer.Direction) {
	a.t.updates = append(a.t.updates, act)
	switch {
	case act.IsWrite():
		if tok.AstOperand2 != nil {
			if v, ok := tok.AstOperand2.GetKnownIntValue(); ok {
				a.values = []int64{v}
				a.precision = precisionKnown
				return
			}
		}
		a.values = nil
		a.precision = precisionPossible
	case act.IsModified():
		a.values = nil
		if a.precision < precisionPossible {
			a.precision = precisionPossible
		}
	}
}

func (a *fakeAnalyzer) UpdateState(tok *token.Token) {
	if tok == nil {
		return
	}
	a.t.visited = append(a.t.visited, tok.Str)
}

func (a *fakeAnalyzer) UpdateScope(_ *token.Token, _ bool) bool { return a.AllowFork }

func (a *fakeAnalyzer) Assume(tok *token.Token, result bool, flags analyzer.AssumeFlags) {
	idx := -1
	str := ""
	if tok != nil {
		idx, str = tok.Index, tok.Str
	}
	a.t.assumes = append(a.t.assumes, assumeCall{tokIndex: idx, tokStr: str, result: result, flags: flags})
}

func (a *fakeAnalyzer) LowerToPossible() bool {
	if a.precision == precisionInconclusive {
		return !a.RefuseLowerInconclusive
	}
	if a.RefuseLowerPossible {
		return false
	}
	a.precision = precisionPossible
	a.values = nil
	return true
}

func (a *fakeAnalyzer) LowerToInconclusive() bool {
	if a.RefuseLowerInconclusive {
		return false
	}
	a.precision = precisionInconclusive
	a.values = nil
	return true
}

func (a *fakeAnalyzer) IsConditional() bool               { return a.Conditional }
func (a *fakeAnalyzer) StopOnCondition(*token.Token) bool { return a.StopOnConditionResult }
func (a *fakeAnalyzer) Invalid() bool                     { return a.InvalidResult }

func (a *fakeAnalyzer) Fork() analyzer.Analyzer {
	a.t.forks++
	cp := *a
	if len(a.values) > 0 {
		cp.values = append([]int64(nil), a.values...)
	}
	modCopy := make(map[string]bool, len(a.Modifying))
	for k, v := range a.Modifying {
		modCopy[k] = v
	}
	cp.Modifying = modCopy
	emptyCopy := make(map[string]bool, len(a.EmptyContainers))
	for k, v := range a.EmptyContainers {
		emptyCopy[k] = v
	}
	cp.EmptyContainers = emptyCopy
	return &cp
}

var _ analyzer.Analyzer = (*fakeAnalyzer)(nil)
