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

// Package traversal implements the forward dataflow traversal engine: a single-pass, recursive
// descent walk over a token stream that drives a caller-supplied Analyzer through every
// statement, expression, branch, and loop it finds, honoring source evaluation order and
// control-flow/escape semantics along the way.
package traversal

import (
	"errors"
	"fmt"

	"github.com/fdte/fdte/library"
	"github.com/fdte/fdte/token"
	"github.com/fdte/fdte/trace"
)

// ErrTerminated is returned by the public entry points when Settings.Terminated reported that the
// surrounding analysis run was cancelled partway through a traversal. It is the Go-idiomatic
// analogue of the TerminateException the engine this was derived from raises for the same reason:
// Go has no asynchronous-exception mechanism, so the engine polls Terminated() between tokens and
// returns a sentinel error instead.
var ErrTerminated = errors.New("traversal: terminated")

// InternalError reports that the traversal encountered a token stream it cannot safely continue
// walking — currently, only a cyclic AST (an AstOperand edge that loops back on an ancestor of
// itself, or a token stream whose Index fails to increase along the Range Driver's run). A well-formed front end never produces one; this exists so a malformed one fails loudly
// instead of recursing forever.
type InternalError struct {
	Tok *token.Token
	Msg string
}

func (e *InternalError) Error() string {
	idx := -1
	if e.Tok != nil {
		idx = e.Tok.Index
	}
	return fmt.Sprintf("traversal: internal error at token %d: %s", idx, e.Msg)
}

// Settings configures one traversal run.
type Settings struct {
	// MaxForwardBranches bounds how many if-statement forks a single traversal will explore
	// before giving up and reporting a MaxBranches diagnostic. Zero means unlimited.
	MaxForwardBranches int

	// MaxRecursionDepth bounds AST recursion depth as a second line of defense against malformed
	// (but non-cyclic) deeply nested expressions. Zero means unlimited.
	MaxRecursionDepth int

	// Terminated is polled once per statement; when it returns true the traversal stops and
	// returns ErrTerminated. A nil Terminated is treated as "never terminated".
	Terminated func() bool

	// Library classifies which function calls the Range Driver should treat as escape functions
	// (spec.md §3, §6 settings.library). A nil Library means no call is ever treated as one.
	Library *library.Database

	// Trace, when non-nil, receives a Visit call for every expression statement the Range Driver
	// walks and for every return/throw operand it walks (in forks as well as the main traversal);
	// control-flow keywords are not recorded. This lets a test snapshot a traversal's visited-token/action sequence for
	// golden-style regression comparison (see package trace). Nil disables recording entirely at
	// zero cost beyond the nil check.
	Trace *trace.Recorder
}

func (s Settings) isTerminated() bool {
	return s.Terminated != nil && s.Terminated()
}
