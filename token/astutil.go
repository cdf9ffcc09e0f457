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

package token

// topLevelSemicolons returns the ';' tokens directly inside open..open.Link, skipping anything
// nested inside a further bracket pair.
func topLevelSemicolons(open *Token) []*Token {
	close := open.Link
	var res []*Token
	for t := open.Next(); t != nil && t != close; t = t.next {
		if t.Link != nil && t.Link.Index > t.Index {
			t = t.Link
			continue
		}
		if t.Str == ";" {
			res = append(res, t)
		}
	}
	return res
}

// GetInitTok returns the init-statement token of a for-loop header (the token right after the
// opening '(' and before the first top-level ';'), or nil if that clause is empty or loopTok
// isn't a for-loop.
func GetInitTok(loopTok *Token) *Token {
	if loopTok == nil || loopTok.Str != "for" {
		return nil
	}
	open := loopTok.Next()
	semis := topLevelSemicolons(open)
	if len(semis) < 2 {
		return nil
	}
	start := open.Next()
	if start == semis[0] {
		return nil
	}
	return start
}

// GetCondTok returns the condition token of a for- or while-loop header, or nil if the clause is
// empty (e.g. `for (;;)`).
func GetCondTok(loopTok *Token) *Token {
	if loopTok == nil {
		return nil
	}
	open := loopTok.Next()
	if open == nil || open.Str != "(" {
		return nil
	}
	switch loopTok.Str {
	case "while":
		start := open.Next()
		if start == open.Link {
			return nil
		}
		return start
	case "for":
		semis := topLevelSemicolons(open)
		if len(semis) < 2 {
			return nil
		}
		start := semis[0].Next()
		if start == semis[1] {
			return nil
		}
		return start
	default:
		return nil
	}
}

// GetStepTok returns the step-expression token of a for-loop header, or nil if that clause is
// empty or loopTok isn't a for-loop.
func GetStepTok(loopTok *Token) *Token {
	if loopTok == nil || loopTok.Str != "for" {
		return nil
	}
	open := loopTok.Next()
	semis := topLevelSemicolons(open)
	if len(semis) < 2 {
		return nil
	}
	start := semis[1].Next()
	if start == open.Link {
		return nil
	}
	return start
}

// RangeForColon returns the top-level ':' separator of a range-based for-loop header
// (`for (x : v)`), or nil if loopTok isn't a for-loop or its header uses the classic
// init;cond;step form instead.
func RangeForColon(loopTok *Token) *Token {
	if loopTok == nil || loopTok.Str != "for" {
		return nil
	}
	open := loopTok.Next()
	if open == nil || open.Str != "(" {
		return nil
	}
	for t := open.Next(); t != nil && t != open.Link; t = t.next {
		if t.Link != nil && t.Link.Index > t.Index {
			t = t.Link
			continue
		}
		if t.Str == ";" {
			return nil
		}
		if t.Str == ":" {
			return t
		}
	}
	return nil
}

// RangeForContainer returns the container expression token of a range-based for-loop header
// (the `v` in `for (x : v)`), or nil if the header has no range-for colon or the clause is empty.
func RangeForContainer(loopTok *Token) *Token {
	colon := RangeForColon(loopTok)
	if colon == nil {
		return nil
	}
	open := loopTok.Next()
	start := colon.Next()
	if start == open.Link {
		return nil
	}
	return start
}

// loopOwnerFromEnd walks from a loop body's closing '}' back to the "for"/"while"/"do" token that
// owns it.
func loopOwnerFromEnd(endOfLoop *Token) *Token {
	if endOfLoop == nil || endOfLoop.Link == nil {
		return nil
	}
	bodyStart := endOfLoop.Link // the '{'
	headClose := bodyStart.Previous()
	if headClose == nil || headClose.Str != ")" || headClose.Link == nil {
		return nil
	}
	headOpen := headClose.Link
	return headOpen.Previous()
}

// GetInitTokFromEnd is GetInitTok addressed by the loop body's closing '}' instead of the
// loop keyword, matching how the branch/loop controller revisits a loop once it has already
// reached the end of the body.
func GetInitTokFromEnd(endOfLoop *Token) *Token { return GetInitTok(loopOwnerFromEnd(endOfLoop)) }

// GetCondTokFromEnd is GetCondTok addressed by the loop body's closing '}'.
func GetCondTokFromEnd(endOfLoop *Token) *Token { return GetCondTok(loopOwnerFromEnd(endOfLoop)) }

// GetStepTokFromEnd is GetStepTok addressed by the loop body's closing '}'.
func GetStepTokFromEnd(endOfLoop *Token) *Token { return GetStepTok(loopOwnerFromEnd(endOfLoop)) }

// EnclosingBreakTarget returns the body-end token of the nearest enclosing loop or switch that a
// break statement at tok would exit — never an enclosing if/else, which break does not exit.
func EnclosingBreakTarget(tok *Token) *Token {
	for s := tok.Scope(); s != nil; s = s.NestedIn {
		if s.IsLoopScope() || s.Type == Switch {
			return s.BodyEnd
		}
	}
	return nil
}

// EnclosingContinueTarget returns the body-end token of the nearest enclosing loop that a
// continue statement at tok would jump to the bottom of. Unlike break, continue never targets a
// switch.
func EnclosingContinueTarget(tok *Token) *Token {
	for s := tok.Scope(); s != nil; s = s.NestedIn {
		if s.IsLoopScope() {
			return s.BodyEnd
		}
	}
	return nil
}

// StripParens unwraps textual grouping parentheses around tok's AST, returning the innermost
// operand. cppcheck's own AST never materializes grouping parens as nodes; this helper exists so
// hand-built test fixtures that do keep a "(" wrapper token behave the same way.
func StripParens(tok *Token) *Token {
	for tok != nil && tok.Str == "(" && tok.AstOperand1 != nil && tok.AstOperand2 == nil {
		tok = tok.AstOperand1
	}
	return tok
}

// SkipTo advances from start to target without ever stepping past the bound token, returning
// target itself if it is reached first and bound if target lies beyond it (or is never found).
// The traversal's break handler does not use it; it resumes at the target's Next directly.
func SkipTo(start, target, bound *Token) *Token {
	for t := start; t != nil; t = t.next {
		if t == target {
			return t
		}
		if t == bound {
			return bound
		}
	}
	return bound
}
