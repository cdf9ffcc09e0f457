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
	"github.com/fdte/fdte/library"
	"github.com/fdte/fdte/token"
)

// ForwardTraversal holds everything one traversal run (and every fork spawned from it) shares or
// carries independently. Forking copies the struct by value and replaces analyzer with an
// independent Analyzer.Fork(), so a speculative sub-traversal can never mutate the state the
// caller continues with.
type ForwardTraversal struct {
	analyzer analyzer.Analyzer
	settings Settings
	lib      *library.Database
	logger   diagnostic.Logger

	// actions is the union of every Action observed so far in this traversal (or fork).
	actions action.Action
	// terminate records why this traversal (or fork) stopped looking at the tracked value, if it
	// has. It is sticky: once set, later tokens are never visited.
	terminate action.Terminate

	// branchCount is shared by pointer across every fork descended from one top-level call so the
	// branch limit in Settings applies to the traversal as a whole, not per fork.
	branchCount *int
	// branchLimitHit remembers that the MaxBranches diagnostic has already been reported once,
	// so a deeply-nested statement doesn't report it again for every further branch point.
	branchLimitHit *bool
}

// newTraversal constructs the top-level ForwardTraversal for one public entry-point call.
func newTraversal(a analyzer.Analyzer, settings Settings, lib *library.Database, logger diagnostic.Logger) *ForwardTraversal {
	return &ForwardTraversal{
		analyzer:       a,
		settings:       settings,
		lib:            lib,
		logger:         logger,
		branchCount:    new(int),
		branchLimitHit: new(bool),
	}
}

// fork returns an independent sub-traversal sharing this traversal's configuration and branch
// budget, but with its own copy of the Analyzer and a clean action/terminate slate, so the caller
// can read off exactly what the fork itself observed once it returns.
func (t *ForwardTraversal) fork() *ForwardTraversal {
	return &ForwardTraversal{
		analyzer:       t.analyzer.Fork(),
		settings:       t.settings,
		lib:            t.lib,
		logger:         t.logger,
		branchCount:    t.branchCount,
		branchLimitHit: t.branchLimitHit,
	}
}

// countBranch charges one if-statement fork point against Settings.MaxForwardBranches, reporting
// the MaxBranches diagnostic (once) and asking the traversal to bail once the limit is exceeded.
func (t *ForwardTraversal) countBranch(tok *token.Token) {
	if t.settings.MaxForwardBranches <= 0 {
		return
	}
	*t.branchCount++
	if *t.branchCount <= t.settings.MaxForwardBranches {
		return
	}
	if !*t.branchLimitHit {
		*t.branchLimitHit = true
		idx := -1
		if tok != nil {
			idx = tok.Index
		}
		if t.logger != nil {
			t.logger.Report(diagnostic.MaxBranches(idx, t.settings.MaxForwardBranches))
		}
	}
	t.terminate = action.TerminateBail
}

func (t *ForwardTraversal) report(tok *token.Token) error {
	if t.settings.isTerminated() {
		return ErrTerminated
	}
	_ = tok
	return nil
}

// traverseRange is the Range Driver: it walks the flat token list from start up to (excluding)
// end, dispatching control-flow keywords to the branch/loop controller and everything else to the
// expression walker, stopping as soon as terminate becomes sticky.
//
// prevIndex enforces the progress guard (spec.md §4.1, §8 invariant 1): every token visited while
// mutating state must have a strictly greater Index than the one visited before it in this same
// straight run, or the token stream's AST contains a cycle the engine cannot safely walk.
func (t *ForwardTraversal) traverseRange(start, end *token.Token) (action.Progress, error) {
	tok := start
	prevIndex := -1
	for tok != nil && tok != end {
		if tok.Index <= prevIndex {
			return action.ProgressBreak, &InternalError{Tok: tok, Msg: "cyclic token stream: index did not increase"}
		}
		prevIndex = tok.Index

		if t.terminate.IsTerminated() {
			return action.ProgressBreak, nil
		}
		if err := t.report(tok); err != nil {
			return action.ProgressBreak, err
		}
		t.analyzer.UpdateState(tok)

		switch tok.Str {
		case "{":
			prog, err := t.traverseRange(tok.Next(), tok.Link)
			if err != nil {
				return prog, err
			}
			if prog != action.ProgressContinue || t.terminate.IsTerminated() {
				return action.ProgressBreak, nil
			}
			tok = tok.Link.Next()

		case "if":
			next, err := t.traverseIf(tok)
			if err != nil {
				return action.ProgressBreak, err
			}
			if t.terminate.IsTerminated() {
				return action.ProgressBreak, nil
			}
			tok = next

		case "for", "while":
			next, err := t.traverseLoop(tok)
			if err != nil {
				return action.ProgressBreak, err
			}
			if t.terminate.IsTerminated() {
				return action.ProgressBreak, nil
			}
			tok = next

		case "do":
			next, err := t.traverseDoWhile(tok)
			if err != nil {
				return action.ProgressBreak, err
			}
			if t.terminate.IsTerminated() {
				return action.ProgressBreak, nil
			}
			tok = next

		case "switch":
			next, err := t.traverseSwitch(tok)
			if err != nil {
				return action.ProgressBreak, err
			}
			if t.terminate.IsTerminated() {
				return action.ProgressBreak, nil
			}
			tok = next

		case "try":
			next, err := t.traverseTry(tok)
			if err != nil {
				return action.ProgressBreak, err
			}
			if t.terminate.IsTerminated() {
				return action.ProgressBreak, nil
			}
			tok = next

		case "break":
			// A break whose target (the enclosing loop/switch's closing brace) still lands within
			// the range currently being walked only narrows precision and resumes the Range Driver
			// just past that scope (spec.md §4.1: "otherwise issues lowerToPossible"); one that
			// would jump past end altogether is modeled as leaving the range outright, since there
			// is nowhere left inside [start, end) to resume from.
			target := token.EnclosingBreakTarget(tok)
			if target == nil || (end != nil && target.Index >= end.Index) {
				t.terminate = action.TerminateEscape
				return action.ProgressBreak, nil
			}
			if !t.analyzer.LowerToPossible() {
				t.terminate = action.TerminateBail
				return action.ProgressBreak, nil
			}
			tok = target.Next()

		case "continue":
			// Same resumption rule as break, but EnclosingContinueTarget never targets a switch
			// (spec.md §4.2: continue "set *out = loopEnds.top", i.e. jump to the bottom of the
			// nearest enclosing loop rather than escaping outright).
			target := token.EnclosingContinueTarget(tok)
			if target == nil || (end != nil && target.Index >= end.Index) {
				t.terminate = action.TerminateEscape
				return action.ProgressBreak, nil
			}
			if !t.analyzer.LowerToPossible() {
				t.terminate = action.TerminateBail
				return action.ProgressBreak, nil
			}
			tok = target.Next()

		case "case", "default":
			// A case/default label is a join point: control can arrive here from the fall-through
			// of the previous case as well as directly, so the tracked value can no longer be
			// known precisely, only possibly.
			if !t.analyzer.LowerToPossible() {
				t.terminate = action.TerminateBail
				return action.ProgressBreak, nil
			}
			tok = tok.Next()

		case "return", "throw":
			if tok.AstOperand1 != nil {
				act, err := updateAst(t.analyzer, tok.AstOperand1, 0, t.settings.MaxRecursionDepth, map[*token.Token]bool{})
				if err != nil {
					return action.ProgressBreak, err
				}
				t.actions = t.actions.Or(act)
				t.settings.Trace.Visit(tok.Index, tok.Str, act)
			}
			t.terminate = action.TerminateEscape
			return action.ProgressBreak, nil

		case "goto":
			// Unstructured jumps make it unsafe to keep tracking the value precisely past this
			// point: give up rather than guess where control resumes.
			t.terminate = action.TerminateBail
			return action.ProgressBreak, nil

		case ";":
			tok = tok.Next()

		default:
			semi := nextStatementEnd(tok)
			// Assignment lift (spec.md §4.1): tok is usually the leftmost leaf of the statement's
			// expression, e.g. the "x" of "x = f(1);". Climbing to the AST root before walking
			// means the Expression Walker sees the whole expression — including the right-hand
			// side of an assignment and a call's arguments — rather than just the leaf the Range
			// Driver happened to land on first.
			root := tok.AstTop()
			if isFunctionCall(root) && library.IsEscapeFunction(root, t.lib) {
				if root.AstOperand2 != nil {
					if _, err := updateAst(t.analyzer, root.AstOperand2, 0, t.settings.MaxRecursionDepth, map[*token.Token]bool{}); err != nil {
						return action.ProgressBreak, err
					}
				}
				t.terminate = action.TerminateEscape
				return action.ProgressBreak, nil
			}
			act, err := updateAst(t.analyzer, root, 0, t.settings.MaxRecursionDepth, map[*token.Token]bool{})
			if err != nil {
				return action.ProgressBreak, err
			}
			t.actions = t.actions.Or(act)
			t.settings.Trace.Visit(tok.Index, tok.Str, act)
			if act.IsInvalid() {
				t.terminate = action.TerminateBail
				return action.ProgressBreak, nil
			}
			if act.IsModified() {
				t.terminate = action.TerminateModified
				return action.ProgressBreak, nil
			}
			if act.IsInconclusive() && !t.analyzer.LowerToInconclusive() {
				t.terminate = action.TerminateInconclusive
				return action.ProgressBreak, nil
			}
			if semi == nil {
				return action.ProgressContinue, nil
			}
			tok = semi.Next()
		}
	}
	return action.ProgressContinue, nil
}

// walkCondition walks a branch/loop condition expression on the main (non-speculative) traversal —
// the condition is always evaluated regardless of which arm or iteration count is eventually taken
// — and folds its Action into t.actions. It reports bailed=true when the condition's own Action
// was Invalid, in which case the caller must stop rather than proceed to fork arms or a body.
func (t *ForwardTraversal) walkCondition(condTok *token.Token) (bailed bool, err error) {
	if condTok == nil {
		return false, nil
	}
	act, err := updateAst(t.analyzer, condTok.AstTop(), 0, t.settings.MaxRecursionDepth, map[*token.Token]bool{})
	if err != nil {
		return false, err
	}
	t.actions = t.actions.Or(act)
	if act.IsInvalid() {
		t.terminate = action.TerminateBail
		return true, nil
	}
	return false, nil
}

// nextStatementEnd scans forward from tok for the next ';' that is not nested inside a further
// bracket pair, the Range Driver's way of finding where one expression-statement ends without a
// real parser's help.
func nextStatementEnd(tok *token.Token) *token.Token {
	for t := tok; t != nil; t = t.Next() {
		if t.Link != nil && t.Link.Index > t.Index {
			t = t.Link
			continue
		}
		if t.Str == ";" {
			return t
		}
	}
	return nil
}
