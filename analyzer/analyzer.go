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

// Package analyzer defines the Analyzer capability interface the traversal engine drives. The
// engine never knows what value is being tracked or what "nilable", "uninitialized", or "tainted"
// means; all of that lives behind this interface, supplied by the caller.
package analyzer

import (
	"github.com/fdte/fdte/action"
	"github.com/fdte/fdte/token"
)

// Direction distinguishes which way a traversal walks the token stream. FDTE itself only ever
// drives Forward; the type exists so a hypothetical backward sibling engine could share this
// interface without renegotiating its shape.
type Direction int

const (
	Forward Direction = iota
)

// AssumeFlags qualifies how confident the engine is in a condition it is asking the Analyzer to
// assume true or false.
type AssumeFlags uint8

const (
	AssumeNone AssumeFlags = 0
	// Quiet asks the Analyzer not to emit any diagnostics while assuming this condition; used
	// when the engine is only speculatively forking, not committing to a branch.
	Quiet AssumeFlags = 1 << iota
	// Absolute asks the Analyzer to assume the condition with full confidence rather than
	// treating it as merely possible.
	Absolute
	// ContainerEmpty asks the Analyzer to assume a container-emptiness condition specifically
	// (e.g. `v.empty()`), which some Analyzers track separately from general boolean truth.
	ContainerEmpty
)

func (f AssumeFlags) Has(bit AssumeFlags) bool { return f&bit != 0 }

// Analyzer is the single capability surface the traversal engine depends on. Every method takes
// the token currently under consideration; the Analyzer is responsible for knowing which variable
// or value it is tracking and for all value-specific logic (assignment compatibility, pointer
// aliasing, nilability, whatever the caller's domain is).
type Analyzer interface {
	// Evaluate returns the set of possible integer values tok could take, in the context of ctx
	// (the token currently being visited, used for condition-sensitive evaluation). Returns nil
	// if the Analyzer cannot evaluate tok at all.
	Evaluate(tok, ctx *token.Token) []int64

	// EvaluateContainerEmpty returns the possible truth values ([]int64{0}, []int64{1}, or both)
	// of "is this container empty" for tok, or nil if not applicable/unknown.
	EvaluateContainerEmpty(tok *token.Token) []int64

	// Analyze classifies what effect visiting tok (while walking in the given direction) has on
	// the tracked value, without mutating the Analyzer's own state.
	Analyze(tok *token.Token, dir Direction) action.Action

	// Update commits the effect computed by Analyze (or a caller-synthesized Action) to the
	// Analyzer's internal state for tok.
	Update(tok *token.Token, act action.Action, dir Direction)

	// UpdateState performs any bookkeeping an Analyzer needs each time the traversal steps onto a
	// new token, independent of whether that token reads or writes the tracked value (e.g.
	// maintaining a current-statement pointer for error messages).
	UpdateState(tok *token.Token)

	// UpdateScope is called when the traversal finishes walking a nested scope (e.g. a lambda
	// body or an inlined callee) as a single opaque unit rather than token by token. isModified
	// reports whether that scope was classified as modifying the tracked value. UpdateScope
	// returns true if the Analyzer wants the traversal to continue past the scope, false to bail.
	// The traversal package never calls UpdateScope: its branch and loop controllers fork every
	// arm and loop body they walk without asking.
	UpdateScope(endBlock *token.Token, isModified bool) bool

	// Assume tells the Analyzer to act as though the condition at tok evaluated to result,
	// qualified by flags. Used when forking across an if/else or loop-entry condition.
	Assume(tok *token.Token, result bool, flags AssumeFlags)

	// LowerToPossible asks the Analyzer to downgrade its confidence in the tracked value from
	// "known" to "possible" (e.g. after a branch merge). Returns false if the Analyzer has
	// nothing left to track after lowering, signaling the traversal should stop.
	LowerToPossible() bool

	// LowerToInconclusive asks the Analyzer to downgrade further, to "inconclusive". Returns
	// false if nothing is left to track.
	LowerToInconclusive() bool

	// IsConditional reports whether the Analyzer's current tracked state already depends on an
	// unresolved condition, which affects how eagerly the engine widens on further branches.
	IsConditional() bool

	// StopOnCondition reports whether the traversal should stop, rather than fork, upon reaching
	// the condition at tok (e.g. because the Analyzer determined the condition can never affect
	// the tracked value either way).
	StopOnCondition(tok *token.Token) bool

	// Invalid reports whether the Analyzer's tracked value is no longer meaningful to continue
	// analyzing (e.g. the variable went out of scope).
	Invalid() bool

	// Fork returns an independent copy of the Analyzer, for the engine to drive down a
	// speculative sub-traversal (an if-branch, a loop re-entry check) without the possibility of
	// that exploration mutating the caller's own state. The returned Analyzer must share no
	// mutable state with the receiver.
	Fork() Analyzer
}
