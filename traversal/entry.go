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

package traversal

import (
	"github.com/fdte/fdte/action"
	"github.com/fdte/fdte/analyzer"
	"github.com/fdte/fdte/diagnostic"
	"github.com/fdte/fdte/token"
)

// Result is what both public entry points hand back to the caller: the union of every Action this
// traversal observed, and the reason (if any) it stopped looking any further.
type Result struct {
	Action    action.Action
	Terminate action.Terminate
}

// ForwardRange is the engine's primary entry point (spec.md §6): it walks the token stream from
// start up to (excluding) end, priming the Analyzer with UpdateState(start) before handing off to
// the Range Driver. tokenList is accepted for parity with the Analyzer's own view of the stream
// (an Analyzer implementation may want to cross-check start/end belong to it) but the traversal
// itself only ever follows Token.Next/Link, never indexes into tokenList directly.
func ForwardRange(
	start, end *token.Token,
	a analyzer.Analyzer,
	tokenList *token.List,
	logger diagnostic.Logger,
	settings Settings,
) (Result, error) {
	_ = tokenList
	if a.Invalid() {
		return Result{Action: action.None, Terminate: action.TerminateBail}, nil
	}
	if settings.isTerminated() {
		return Result{}, ErrTerminated
	}

	t := newTraversal(a, settings, settings.Library, logger)
	a.UpdateState(start)

	if _, err := t.traverseRange(start, end); err != nil {
		return Result{Action: t.actions, Terminate: t.terminate}, err
	}
	return Result{Action: t.actions, Terminate: t.terminate}, nil
}

// ForwardExpression is the engine's second entry point (spec.md §6): it walks a single expression
// rooted at start via AST recursion only, with no surrounding statement structure to drive. Like
// ForwardRange, it polls Settings.Terminated before doing any work and returns ErrTerminated
// (the Go-idiomatic analogue of the TerminateException spec.md §7 describes) rather than folding
// that signal into Result, since external cancellation is not itself an analysis outcome.
func ForwardExpression(
	start *token.Token,
	a analyzer.Analyzer,
	tokenList *token.List,
	logger diagnostic.Logger,
	settings Settings,
) (Result, error) {
	_ = tokenList
	_ = logger
	if settings.isTerminated() {
		return Result{}, ErrTerminated
	}
	if a.Invalid() {
		return Result{Action: action.None, Terminate: action.TerminateBail}, nil
	}

	t := newTraversal(a, settings, settings.Library, logger)
	act, err := updateAst(a, start, 0, settings.MaxRecursionDepth, map[*token.Token]bool{})
	if err != nil {
		return Result{Action: act, Terminate: t.terminate}, err
	}
	t.actions = act
	return Result{Action: t.actions, Terminate: t.terminate}, nil
}
