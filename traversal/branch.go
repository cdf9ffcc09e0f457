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
	"github.com/fdte/fdte/token"
)

// traverseIf is the Branch Controller's entry point for one if-statement (and, by recursion, the
// "else if" chain hanging off it). It forks a sub-traversal per arm, so neither arm's exploration
// can affect the other's, then merges the two outcomes back into the receiver's own state.
func (t *ForwardTraversal) traverseIf(ifTok *token.Token) (*token.Token, error) {
	condOpen := ifTok.Next()
	condTok := condOpen.Next()
	if condTok == condOpen.Link {
		condTok = nil
	}
	bodyOpen := condOpen.Link.Next()
	bodyEnd := bodyOpen.Link

	// Step 1 (spec.md §4.3): walk the condition expression itself, on the main traversal — this is
	// not speculative, the condition is always evaluated regardless of which arm is taken.
	if bailed, err := t.walkCondition(condTok); err != nil {
		return nil, err
	} else if bailed {
		return bodyEnd.Next(), nil
	}

	thenBranch, err := t.exploreBranch(bodyOpen.Next(), bodyEnd, condTok, true)
	if err != nil {
		return nil, err
	}

	next := bodyEnd.Next()
	var elseBranch action.Branch
	haveElse := false

	if next != nil && next.Str == "else" {
		haveElse = true
		after := next.Next()
		if after.Str == "if" {
			sub := t.fork()
			if condTok != nil {
				sub.analyzer.Assume(condTok, false, analyzer.Quiet)
			}
			n, err := sub.traverseIf(after)
			if err != nil {
				return nil, err
			}
			elseBranch = action.Branch{
				Action:    sub.actions,
				Terminate: sub.terminate,
				Escape:    sub.terminate == action.TerminateEscape,
			}
			elseBranch.Dead = elseBranch.IsModified() || elseBranch.IsInconclusive() || elseBranch.IsEscape()
			next = n
		} else {
			elseBodyEnd := after.Link
			elseBranch, err = t.exploreBranch(after.Next(), elseBodyEnd, condTok, false)
			if err != nil {
				return nil, err
			}
			next = elseBodyEnd.Next()
		}
	}

	t.mergeBranches(condTok, thenBranch, elseBranch, haveElse)
	return next, nil
}

// exploreBranch forks off the receiver, assumes the branch condition to have the given truth
// value (quietly — this is exploration, not a commitment the Analyzer should report on), and
// walks the arm's body, returning what that fork observed as a Branch record.
func (t *ForwardTraversal) exploreBranch(start, end *token.Token, condTok *token.Token, result bool) (action.Branch, error) {
	if start == end {
		return action.Branch{}, nil
	}
	sub := t.fork()
	if condTok != nil {
		sub.analyzer.Assume(condTok, result, analyzer.Quiet)
	}
	if _, err := sub.traverseRange(start, end); err != nil {
		return action.Branch{}, err
	}
	br := action.Branch{
		Action:    sub.actions,
		Terminate: sub.terminate,
		Escape:    sub.terminate == action.TerminateEscape,
	}
	br.Dead = br.IsModified() || br.IsInconclusive() || br.IsEscape()
	return br, nil
}

// mergeBranches combines the then/else outcomes into the receiver's own actions/terminate state.
// A branch that conclusively escapes (return/throw, or break/continue past the arm's range) drops out of the merge
// entirely: the surviving arm becomes the straight-line continuation, and the condition is known
// to have resolved the opposite way on that continuation. When both arms survive, their effects
// are unioned and the Analyzer is asked to lower precision if the arms disagree about whether (or
// how) the tracked value changed.
func (t *ForwardTraversal) mergeBranches(condTok *token.Token, thenB, elseB action.Branch, haveElse bool) {
	thenEscapes := thenB.IsConclusiveEscape()
	elseEscapes := haveElse && elseB.IsConclusiveEscape()

	switch {
	case thenEscapes && haveElse && elseEscapes:
		t.terminate = action.TerminateEscape
		return

	case thenEscapes:
		if condTok != nil {
			t.analyzer.Assume(condTok, false, analyzer.Quiet)
		}
		t.actions = t.actions.Or(elseB.Action)
		if elseB.Terminate.IsTerminated() {
			t.terminate = elseB.Terminate
		}
		return

	case elseEscapes:
		if condTok != nil {
			t.analyzer.Assume(condTok, true, analyzer.Quiet)
		}
		t.actions = t.actions.Or(thenB.Action)
		if thenB.Terminate.IsTerminated() {
			t.terminate = thenB.Terminate
		}
		return
	}

	t.actions = t.actions.Or(thenB.Action).Or(elseB.Action)

	// spec.md §4.3 step 6 / §8 invariant 4: an if whose arms are BOTH dead (each modified,
	// inconclusive, or an escape this merge could not treat as a single surviving continuation
	// above) has no live fall-through at all, so the traversal must terminate here rather than let
	// countBranch treat this as an ordinary merge point.
	if haveElse && thenB.IsDead() && elseB.IsDead() {
		switch {
		case thenB.IsModified() && elseB.IsModified():
			t.terminate = action.TerminateModified
		case thenB.IsEscape() && elseB.IsEscape():
			t.terminate = action.TerminateEscape
		default:
			t.terminate = action.TerminateBail
		}
		return
	}

	if thenB.IsModified() || elseB.IsModified() {
		if !t.analyzer.LowerToPossible() {
			t.terminate = action.TerminateModified
			return
		}
	}
	if thenB.IsInconclusive() || elseB.IsInconclusive() {
		if !t.analyzer.LowerToInconclusive() {
			t.terminate = action.TerminateInconclusive
			return
		}
	}

	t.countBranch(condTok)
}
