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

// List is a simple doubly-linked token list builder. It exists purely so the traversal engine and
// its tests have a concrete TokenList to drive, not to be a real lexer: callers append tokens one
// at a time and wire Link/AST edges explicitly.
type List struct {
	front *Token
	back  *Token
	n     int
}

// NewList returns an empty token list.
func NewList() *List { return &List{} }

// Front returns the first token, or nil if the list is empty.
func (l *List) Front() *Token { return l.front }

// Back returns the last token, or nil if the list is empty.
func (l *List) Back() *Token { return l.back }

// Len returns the number of tokens appended so far.
func (l *List) Len() int { return l.n }

// Push appends a new token with the given literal and returns it.
func (l *List) Push(str string) *Token {
	t := &Token{Str: str, Index: l.n}
	if l.back == nil {
		l.front = t
	} else {
		l.back.next = t
		t.previous = l.back
	}
	l.back = t
	l.n++
	return t
}

// LinkPair records that open and close are a matching bracket/paren/brace pair.
func LinkPair(open, close *Token) {
	open.Link = close
	close.Link = open
}

// SetScope assigns the same Scope to every token from first to last, inclusive.
func SetScope(first, last *Token, scope *Scope) {
	for t := first; t != nil; t = t.next {
		t.scope = scope
		if t == last {
			return
		}
	}
}

// SetVariable attaches variable information to a token.
func SetVariable(t *Token, v *Variable) { t.varInfo = v }

// SetAstOperand1 wires tok's first AST operand, setting the reciprocal AstParent edge.
func SetAstOperand1(tok, operand *Token) {
	tok.AstOperand1 = operand
	if operand != nil {
		operand.AstParent = tok
	}
}

// SetAstOperand2 wires tok's second AST operand, setting the reciprocal AstParent edge.
func SetAstOperand2(tok, operand *Token) {
	tok.AstOperand2 = operand
	if operand != nil {
		operand.AstParent = tok
	}
}
