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

package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fdte/fdte/fdtetest"
	"github.com/fdte/fdte/token"
)

func TestGetCondTokForWhile(t *testing.T) {
	t.Parallel()

	list, marks := fdtetest.Build(`while (@cond i < n) { @step ++i; }`)
	loopTok := list.Front()
	require.Equal(t, "while", loopTok.Str)

	cond := token.GetCondTok(loopTok)
	require.Same(t, marks["cond"], cond)
}

func TestGetCondTokForEmptyWhileIsNil(t *testing.T) {
	t.Parallel()

	// fdtetest has no surface for `while (;)`, so drive the empty-clause path directly: a bare
	// "while" followed by an empty "()" header mimics what a macro-expanded condition can produce.
	list := token.NewList()
	w := list.Push("while")
	open := list.Push("(")
	closeParen := list.Push(")")
	token.LinkPair(open, closeParen)
	list.Push("{")
	require.Nil(t, token.GetCondTok(w))
}

func TestForLoopHeaderTokens(t *testing.T) {
	t.Parallel()

	list, marks := fdtetest.Build(`for (@init i = 0; @cond i < n; @step ++i) { body; }`)
	loopTok := list.Front()
	require.Equal(t, "for", loopTok.Str)

	require.Same(t, marks["init"], token.GetInitTok(loopTok))
	require.Same(t, marks["cond"], token.GetCondTok(loopTok))
	require.Same(t, marks["step"], token.GetStepTok(loopTok))
}

func TestForLoopWithEmptyClausesHasNilTokens(t *testing.T) {
	t.Parallel()

	list, _ := fdtetest.Build(`for (;;) { body; }`)
	loopTok := list.Front()

	require.Nil(t, token.GetInitTok(loopTok))
	require.Nil(t, token.GetCondTok(loopTok))
	require.Nil(t, token.GetStepTok(loopTok))
}

func TestRangeForColonAndContainer(t *testing.T) {
	t.Parallel()

	list, marks := fdtetest.Build(`for (e : @container v) { body; }`)
	loopTok := list.Front()

	colon := token.RangeForColon(loopTok)
	require.NotNil(t, colon)
	require.Equal(t, ":", colon.Str)

	container := token.RangeForContainer(loopTok)
	require.Same(t, marks["container"], container)
}

func TestRangeForColonIsNilForClassicForHeader(t *testing.T) {
	t.Parallel()

	list, _ := fdtetest.Build(`for (i = 0; i < n; ++i) { body; }`)
	loopTok := list.Front()
	require.Nil(t, token.RangeForColon(loopTok))
	require.Nil(t, token.RangeForContainer(loopTok))
}

func TestGetCondTokFromEndRoundTripsThroughLoopBody(t *testing.T) {
	t.Parallel()

	list, marks := fdtetest.Build(`for (i = 0; @cond i < n; ++i) { body; }`)
	loopTok := list.Front()

	// Find the loop's closing '}' by walking the header's matching parens/braces.
	headOpen := loopTok.Next()
	headClose := headOpen.Link
	bodyOpen := headClose.Next()
	bodyEnd := bodyOpen.Link

	require.Same(t, marks["cond"], token.GetCondTokFromEnd(bodyEnd))
}

func TestEnclosingBreakTargetSkipsIfButNotLoop(t *testing.T) {
	t.Parallel()

	list, marks := fdtetest.Build(`while (c) { if (p) { @brk break; } }`)
	brk := marks["brk"]
	require.NotNil(t, brk)

	loopTok := list.Front()
	headOpen := loopTok.Next()
	headClose := headOpen.Link
	bodyOpen := headClose.Next()
	bodyEnd := bodyOpen.Link

	require.Same(t, bodyEnd, token.EnclosingBreakTarget(brk))
}

func TestEnclosingContinueTargetNeverTargetsSwitch(t *testing.T) {
	t.Parallel()

	list, marks := fdtetest.Build(`switch (x) { case 1: @cont continue; }`)
	cont := marks["cont"]
	require.NotNil(t, cont)

	// continue has no enclosing loop here, only a switch, so it must not resolve to anything.
	require.Nil(t, token.EnclosingContinueTarget(cont))

	switchTok := list.Front()
	headOpen := switchTok.Next()
	headClose := headOpen.Link
	bodyOpen := headClose.Next()
	bodyEnd := bodyOpen.Link
	require.Same(t, bodyEnd, token.EnclosingBreakTarget(cont))
}

func TestStripParensUnwrapsGroupingOnly(t *testing.T) {
	t.Parallel()

	list := token.NewList()
	paren := list.Push("(")
	inner := list.Push("x")
	token.SetAstOperand1(paren, inner)

	require.Same(t, inner, token.StripParens(paren))
	require.Same(t, inner, token.StripParens(inner))

	binary := list.Push("+")
	lhs := list.Push("a")
	rhs := list.Push("b")
	token.SetAstOperand1(binary, lhs)
	token.SetAstOperand2(binary, rhs)
	// A binary operator node is not a grouping paren: leave it untouched.
	require.Same(t, binary, token.StripParens(binary))
}

func TestSkipToStopsAtBoundWhenTargetIsBeyondIt(t *testing.T) {
	t.Parallel()

	list := token.NewList()
	a := list.Push("a")
	b := list.Push("b")
	bound := list.Push("bound")
	list.Push("past")

	require.Same(t, b, token.SkipTo(a, b, bound))
	require.Same(t, bound, token.SkipTo(a, list.Back(), bound))
}
