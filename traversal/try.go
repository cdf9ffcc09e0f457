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
	"github.com/fdte/fdte/token"
)

// traverseTry is the Range Driver's entry point for `try { ... } catch (...) { ... } ...`
// (spec.md §4.1). The try body and each catch body are forked independently — an exception can
// transfer control into any catch clause from any point in the try body, so none of them can be
// allowed to mutate the state the others see — and if any of them reports Modified or a non-None
// Terminate, the whole statement bails, propagating whichever fork's actions/terminate caused it.
func (t *ForwardTraversal) traverseTry(tryTok *token.Token) (*token.Token, error) {
	bodyOpen := tryTok.Next()
	bodyEnd := bodyOpen.Link

	tryFork, err := t.forkRange(bodyOpen.Next(), bodyEnd)
	if err != nil {
		return nil, err
	}

	t.actions = t.actions.Or(tryFork.actions)
	bail := tryFork.actions.IsModified() || tryFork.terminate.IsTerminated()
	if bail && tryFork.terminate.IsTerminated() {
		t.terminate = tryFork.terminate
	}

	next := bodyEnd.Next()
	for next != nil && next.Str == "catch" {
		headOpen := next.Next()
		headClose := headOpen.Link
		catchBodyOpen := headClose.Next()
		catchBodyEnd := catchBodyOpen.Link

		catchFork, err := t.forkRange(catchBodyOpen.Next(), catchBodyEnd)
		if err != nil {
			return nil, err
		}
		t.actions = t.actions.Or(catchFork.actions)
		if catchFork.actions.IsModified() || catchFork.terminate.IsTerminated() {
			bail = true
			if catchFork.terminate.IsTerminated() {
				t.terminate = catchFork.terminate
			}
		}
		next = catchBodyEnd.Next()
	}

	if bail && !t.terminate.IsTerminated() {
		t.terminate = action.TerminateBail
	}
	return next, nil
}

// forkRange forks the receiver and walks [start, end) on the fork, returning the fork so the
// caller can read off its actions/terminate without the walk affecting the receiver's own state.
func (t *ForwardTraversal) forkRange(start, end *token.Token) (*ForwardTraversal, error) {
	sub := t.fork()
	if _, err := sub.traverseRange(start, end); err != nil {
		return nil, err
	}
	return sub, nil
}
