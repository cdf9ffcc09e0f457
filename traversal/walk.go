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

// isFunctionCall reports whether tok is the '(' AST root of a call expression.
func isFunctionCall(tok *token.Token) bool {
	return tok != nil && tok.Str == "(" && tok.AstOperand1 != nil
}

// assignExpr reports whether tok is the AST root of an assignment expression.
func assignExpr(tok *token.Token) bool {
	return tok != nil && tok.IsAssignmentOp() && tok.AstOperand1 != nil
}

// callExpr reports whether tok is a call's '(' node or has one among its AST ancestors, i.e.
// whether evaluating tok happens "inside a call". Neither the Range Driver nor the expression
// walker calls it; the walker's post-order visit already evaluates a call's operands before the
// call node itself.
func callExpr(tok *token.Token) bool {
	for p := tok; p != nil; p = p.AstParent {
		if isFunctionCall(p) {
			return true
		}
	}
	return false
}

// isShortCircuit reports whether tok is one of the operators the Expression Walker must not
// simply walk operand-by-operand: && and || may skip their right operand entirely, and ?: always
// skips one of its two branches. Ordinary binary/unary operators have no such hazard.
func isShortCircuit(tok *token.Token) bool {
	switch tok.Str {
	case "&&", "||", "?":
		return true
	}
	return false
}

// evalCond returns the possible truth values of cond according to the Analyzer's candidate value
// list (spec.md §4.2 evalCond): thenTrue holds if some candidate is non-zero, elseTrue holds if
// some candidate is zero. An Analyzer that cannot evaluate cond at all returns an empty list,
// which evalCond reports as (false, false) — "unknown" — exactly like both of its flags being
// unset; the short-circuit walker treats that ambiguity as "both branches are live".
func evalCond(a analyzer.Analyzer, cond *token.Token) (thenTrue, elseTrue bool) {
	if cond == nil {
		return false, false
	}
	for _, v := range a.Evaluate(cond, cond) {
		if v != 0 {
			thenTrue = true
		} else {
			elseTrue = true
		}
	}
	return thenTrue, elseTrue
}

// astWalker carries the bits every recursive-descent call of the Expression Walker shares: whether
// it is allowed to mutate the Analyzer (updateAst) or must only classify (analyzeAst), and the
// cyclic-AST/recursion-depth guards from spec.md §4.2 and §5.
type astWalker struct {
	a        analyzer.Analyzer
	mutate   bool
	maxDepth int
	visited  map[*token.Token]bool
}

// visit classifies (and, if w.mutate, commits) tok's own Action, without touching its operands.
func (w *astWalker) visit(tok *token.Token) action.Action {
	own := w.a.Analyze(tok, analyzer.Forward)
	if w.mutate {
		w.a.Update(tok, own, analyzer.Forward)
	}
	return own
}

// walk recurses into tok's AST, honoring source evaluation order: ordinarily operand1 before
// operand2, but swapped for assignments (RHS evaluates before the assignment commits to the LHS)
// and short-circuited for &&, ||, and ?: (an operand whose value cannot affect the result, because
// the other side already decided the outcome, is never delivered to the Analyzer at all).
func (w *astWalker) walk(tok *token.Token, depth int) (action.Action, error) {
	if tok == nil {
		return action.None, nil
	}
	if w.visited[tok] {
		return action.None, &InternalError{Tok: tok, Msg: "cyclic AST"}
	}
	if w.maxDepth > 0 && depth > w.maxDepth {
		// Past the recursion limit the subtree is skipped, not reported as an internal error.
		return action.None, nil
	}
	w.visited[tok] = true
	defer delete(w.visited, tok)

	if isShortCircuit(tok) {
		return w.walkShortCircuit(tok, depth)
	}

	var act action.Action
	first, second := tok.AstOperand1, tok.AstOperand2
	if assignExpr(tok) {
		// RHS before LHS: the Analyzer must see what is being assigned before the assignment
		// itself is visited, since the assignment's own Action (the write) is only meaningful once
		// the value being written is known.
		first, second = tok.AstOperand2, tok.AstOperand1
	}
	if first != nil {
		a1, err := w.walk(first, depth+1)
		if err != nil {
			return act, err
		}
		act = act.Or(a1)
	}
	if second != nil {
		a2, err := w.walk(second, depth+1)
		if err != nil {
			return act, err
		}
		act = act.Or(a2)
	}
	act = act.Or(w.visit(tok))
	return act, nil
}

// walkShortCircuit implements spec.md §4.2's traverseConditional: the Analyzer gets first refusal
// (if it already has an opinion about the composite node, that wins outright and neither operand
// is walked); failing that, the condition's truth is evaluated and only the live branch(es) are
// walked. An ambiguous condition (neither provably true nor provably false) is always treated as
// "both branches live" — the engine's deliberate correctness-over-precision choice — never
// optimized into picking just one.
func (w *astWalker) walkShortCircuit(tok *token.Token, depth int) (action.Action, error) {
	if own := w.a.Analyze(tok, analyzer.Forward); !own.IsNone() {
		if w.mutate {
			w.a.Update(tok, own, analyzer.Forward)
		}
		return own, nil
	}

	var cond, thenOperand, elseOperand *token.Token
	switch tok.Str {
	case "&&", "||":
		cond, thenOperand = tok.AstOperand1, tok.AstOperand2
	case "?":
		cond = tok.AstOperand1
		colon := tok.AstOperand2
		if colon != nil {
			thenOperand, elseOperand = colon.AstOperand1, colon.AstOperand2
		}
	}

	var act action.Action
	if cond != nil {
		condAct, err := w.walk(cond, depth+1)
		if err != nil {
			return act, err
		}
		act = act.Or(condAct)
	}

	thenTrue, elseTrue := evalCond(w.a, cond)
	ambiguous := !thenTrue && !elseTrue

	switch tok.Str {
	case "&&":
		// Skip the right operand only when the left is known false; an ambiguous left is treated
		// as both-taken, so the right operand is still walked.
		if thenTrue || ambiguous {
			a2, err := w.walk(thenOperand, depth+1)
			if err != nil {
				return act, err
			}
			act = act.Or(a2)
		}
	case "||":
		// Skip the right operand only when the left is known true.
		if elseTrue || ambiguous {
			a2, err := w.walk(thenOperand, depth+1)
			if err != nil {
				return act, err
			}
			act = act.Or(a2)
		}
	case "?":
		if thenTrue || ambiguous {
			a1, err := w.walk(thenOperand, depth+1)
			if err != nil {
				return act, err
			}
			act = act.Or(a1)
		}
		if elseTrue || ambiguous {
			a2, err := w.walk(elseOperand, depth+1)
			if err != nil {
				return act, err
			}
			act = act.Or(a2)
		}
	}
	return act, nil
}

// analyzeAst walks tok's AST the way the Expression Walker does, without mutating the Analyzer's
// state — used by callers that only need to classify a subtree (a speculative probe, a loop's
// precomputed bodyAnalysis) to decide whether committing it is even worth doing.
func analyzeAst(a analyzer.Analyzer, tok *token.Token, depth, maxDepth int, visited map[*token.Token]bool) (action.Action, error) {
	w := &astWalker{a: a, mutate: false, maxDepth: maxDepth, visited: visited}
	return w.walk(tok, depth)
}

// updateAst walks tok's AST the same way analyzeAst does, but additionally commits each visited
// node's Action via Update.
func updateAst(a analyzer.Analyzer, tok *token.Token, depth, maxDepth int, visited map[*token.Token]bool) (action.Action, error) {
	w := &astWalker{a: a, mutate: true, maxDepth: maxDepth, visited: visited}
	return w.walk(tok, depth)
}
