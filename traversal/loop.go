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

// traverseLoop is the Branch/Loop Controller's entry point for a for- or while-loop, including the
// range-based `for (x : v)` form. The body is walked once in a fork; if that pass modified the
// tracked value, a second speculative fork re-walks the body to see whether the modification is
// stable (idempotent, or converges to the same result) before deciding whether the caller can keep
// tracking the value past the loop at all. This engine never simulates an unbounded number of
// concrete iterations — two passes is enough to tell "converges" from "keeps changing" for the
// kinds of updates (x = x+1, x = f()) this traversal strategy is meant to classify.
func (t *ForwardTraversal) traverseLoop(loopTok *token.Token) (*token.Token, error) {
	headOpen := loopTok.Next()
	headClose := headOpen.Link
	bodyOpen := headClose.Next()
	bodyEnd := bodyOpen.Link

	if container := token.RangeForContainer(loopTok); container != nil || token.RangeForColon(loopTok) != nil {
		return t.traverseRangeFor(container, bodyOpen.Next(), bodyEnd)
	}

	condTok := token.GetCondTok(loopTok)
	if bailed, err := t.walkCondition(condTok); err != nil {
		return nil, err
	} else if bailed {
		return bodyEnd.Next(), nil
	}

	return t.runLoopAndMerge(condTok, bodyOpen.Next(), bodyEnd, true)
}

// traverseRangeFor handles `for (x : v)` (spec.md §8 concrete scenario 5): when the Analyzer's
// EvaluateContainerEmpty query for the container expression reports it is known empty, the body
// never executes at all and is not walked; otherwise the loop is modeled the same two-pass way an
// ordinary for/while loop is, just without a boolean condition token to assume true/false around.
func (t *ForwardTraversal) traverseRangeFor(container, bodyStart, bodyEnd *token.Token) (*token.Token, error) {
	if container != nil {
		if empty := t.analyzer.EvaluateContainerEmpty(container); len(empty) == 1 && empty[0] == 1 {
			return bodyEnd.Next(), nil
		}
	}
	return t.runLoopAndMerge(nil, bodyStart, bodyEnd, false)
}

// runLoopAndMerge runs a loop's body once (forking so the main traversal isn't mutated by a pass
// whose stability hasn't been checked yet), re-runs it once more if the first pass left the
// tracked value Modified but not Idempotent, and folds the stable result into the receiver. When
// condTok is non-nil and the loop survives without a Terminate, assumeExit requests the standard
// `assume(cond, false)` the Range Driver performs once control falls through the loop (spec.md
// §4.4 step 7); range-for loops have no boolean condition to assume, so callers pass false.
func (t *ForwardTraversal) runLoopAndMerge(condTok, bodyStart, bodyEnd *token.Token, assumeExit bool) (*token.Token, error) {
	// checkScope: classify the body with analyzeScope first, and only pay for the fork-and-walk
	// machinery below if that classification says the body can touch the tracked value at all. A
	// body that analyzeScope reports as untouched needs no speculative re-run to prove stable.
	if fast, ok := t.analyzeScope(bodyStart, bodyEnd); ok && fast.IsNone() {
		if assumeExit && condTok != nil {
			t.analyzer.Assume(condTok, false, analyzer.Quiet)
		}
		return bodyEnd.Next(), nil
	}

	first, err := t.runLoopBodyOnce(condTok, bodyStart, bodyEnd)
	if err != nil {
		return nil, err
	}

	if !first.terminate.IsTerminated() && first.actions.IsModified() && !first.actions.IsIdempotent() {
		second, err := t.runLoopBodyOnce(condTok, bodyStart, bodyEnd)
		if err != nil {
			return nil, err
		}
		if second.actions != first.actions || second.terminate != first.terminate {
			if !t.analyzer.LowerToPossible() {
				t.terminate = action.TerminateModified
				return bodyEnd.Next(), nil
			}
		}
	}

	t.actions = t.actions.Or(first.actions)
	switch first.terminate {
	case action.TerminateBail, action.TerminateInconclusive, action.TerminateModified:
		t.terminate = first.terminate
		return bodyEnd.Next(), nil
	}

	if assumeExit && condTok != nil {
		t.analyzer.Assume(condTok, false, analyzer.Quiet)
	}
	return bodyEnd.Next(), nil
}

// analyzeScope classifies a token range's combined Action without forking or mutating the
// Analyzer (spec.md §5's checkScope/analyzeScope split): it walks each statement's AST root with
// analyzeAst rather than updateAst, purely to let a caller such as runLoopAndMerge decide cheaply
// whether the range is worth forking at all. Any error is swallowed and reported as ok=false,
// since this is an optimization hint only — the real fork-and-walk path in runLoopAndMerge then
// still runs and surfaces any genuine error through its own updateAst calls.
func (t *ForwardTraversal) analyzeScope(start, end *token.Token) (act action.Action, ok bool) {
	for tok := start; tok != nil && tok != end; tok = tok.Next() {
		root := tok.AstTop()
		if root != tok {
			continue
		}
		a, err := analyzeAst(t.analyzer, root, 0, t.settings.MaxRecursionDepth, map[*token.Token]bool{})
		if err != nil {
			return action.None, false
		}
		act = act.Or(a)
	}
	return act, true
}

// runLoopBodyOnce forks, assumes the loop condition true for entry, and walks the body once.
func (t *ForwardTraversal) runLoopBodyOnce(condTok, start, end *token.Token) (*ForwardTraversal, error) {
	sub := t.fork()
	if condTok != nil {
		sub.analyzer.Assume(condTok, true, analyzer.Quiet)
	}
	if _, err := sub.traverseRange(start, end); err != nil {
		return nil, err
	}
	return sub, nil
}

// traverseDoWhile handles `do { ... } while (cond);`. A statically-false condition (the
// do-while(false) idiom many C codebases use as a single-exit macro body) is recognized and
// straight-lined instead of modeled as a loop at all, since it only ever executes once — matching
// the special case the engine this traversal strategy is derived from carves out for it.
func (t *ForwardTraversal) traverseDoWhile(doTok *token.Token) (*token.Token, error) {
	bodyOpen := doTok.Next()
	bodyEnd := bodyOpen.Link
	whileTok := bodyEnd.Next()
	condTok := token.GetCondTok(whileTok)
	afterParen := whileTok.Next().Link.Next()
	next := afterParen
	if next != nil && next.Str == ";" {
		next = next.Next()
	}

	if condTok != nil {
		if v, ok := condTok.GetKnownIntValue(); ok && v == 0 {
			if _, err := t.traverseRange(bodyOpen.Next(), bodyEnd); err != nil {
				return nil, err
			}
			return next, nil
		}
	}

	if bailed, err := t.walkCondition(condTok); err != nil {
		return nil, err
	} else if bailed {
		return next, nil
	}

	first, err := t.runLoopBodyOnce(nil, bodyOpen.Next(), bodyEnd)
	if err != nil {
		return nil, err
	}
	if !first.terminate.IsTerminated() && first.actions.IsModified() && !first.actions.IsIdempotent() {
		second, err := t.runLoopBodyOnce(nil, bodyOpen.Next(), bodyEnd)
		if err != nil {
			return nil, err
		}
		if second.actions != first.actions || second.terminate != first.terminate {
			if !t.analyzer.LowerToPossible() {
				t.terminate = action.TerminateModified
				return next, nil
			}
		}
	}

	t.actions = t.actions.Or(first.actions)
	switch first.terminate {
	case action.TerminateBail, action.TerminateInconclusive, action.TerminateModified:
		t.terminate = first.terminate
		return next, nil
	}
	if condTok != nil {
		t.analyzer.Assume(condTok, false, analyzer.Quiet)
	}
	return next, nil
}

// traverseSwitch walks only the switch's selector expression; the body is deliberately not
// analyzed statement-by-statement at all (spec.md §4.1, §8 concrete scenario 6) — a documented
// limitation the engine this strategy is derived from also carries, since a switch's case labels
// make fall-through control flow ambiguous for this traversal strategy to model precisely. The
// traversal conservatively records that the body may have written the tracked value and bails.
func (t *ForwardTraversal) traverseSwitch(switchTok *token.Token) (*token.Token, error) {
	headOpen := switchTok.Next()
	headClose := headOpen.Link
	bodyEnd := headClose.Next().Link

	selector := headOpen.Next()
	if selector != headOpen.Link {
		if bailed, err := t.walkCondition(selector); err != nil {
			return nil, err
		} else if bailed {
			return bodyEnd.Next(), nil
		}
	}

	t.actions = t.actions.Or(action.Write)
	t.terminate = action.TerminateBail
	return bodyEnd.Next(), nil
}
