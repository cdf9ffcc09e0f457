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

// Package library implements the out-of-core "library database" collaborator the engine queries
// to tell escape-causing calls (abort, exit, longjmp, a project's own [[noreturn]] helpers) apart
// from ordinary ones. The engine itself never hardcodes such a list; it asks a Database.
package library

import "github.com/fdte/fdte/token"

// Kind classifies how a known function call affects control flow.
type Kind int

const (
	// Ordinary marks a call with no special control-flow effect.
	Ordinary Kind = iota
	// NoReturn marks a call that never returns control to its caller (abort, exit, a function
	// annotated [[noreturn]]).
	NoReturn
	// Throwing marks a call the database knows always throws.
	Throwing
)

type entry struct {
	kind Kind
}

// Database is a small, explicit registry of function names the engine should treat specially. It
// is deliberately not a general-purpose symbol table: callers construct one from whatever source
// of truth their front end has (a config file, annotations, a fixed built-in list) and hand it to
// the engine's entry points.
type Database struct {
	funcs map[string]entry
}

// NewDatabase returns a Database seeded with the handful of C standard library functions
// that are always safe to assume never return.
func NewDatabase() *Database {
	d := &Database{funcs: make(map[string]entry)}
	for _, name := range []string{"abort", "exit", "_exit", "longjmp", "quick_exit"} {
		d.funcs[name] = entry{kind: NoReturn}
	}
	return d
}

// MarkNoReturn registers name as a function that never returns.
func (d *Database) MarkNoReturn(name string) { d.funcs[name] = entry{kind: NoReturn} }

// MarkThrowing registers name as a function that always throws.
func (d *Database) MarkThrowing(name string) { d.funcs[name] = entry{kind: Throwing} }

// Lookup returns the registered Kind for name, or Ordinary if the database has no entry for it.
func (d *Database) Lookup(name string) Kind {
	if d == nil {
		return Ordinary
	}
	if e, ok := d.funcs[name]; ok {
		return e.kind
	}
	return Ordinary
}

// IsEscapeFunction reports whether tok is a call to a function this database knows always
// transfers control out of the current function (by not returning, or by always throwing).
func IsEscapeFunction(tok *token.Token, db *Database) bool {
	if tok == nil || db == nil {
		return false
	}
	name := calleeName(tok)
	if name == "" {
		return false
	}
	switch db.Lookup(name) {
	case NoReturn, Throwing:
		return true
	default:
		return false
	}
}

// calleeName extracts the function name from a call expression's opening '(' token, assuming the
// token immediately before it (AstOperand1 of the call) is a plain identifier — the only call
// shape this database needs to recognize.
func calleeName(callParen *token.Token) string {
	if callParen == nil || callParen.Str != "(" {
		return ""
	}
	callee := callParen.AstOperand1
	if callee == nil || !callee.IsName() {
		return ""
	}
	return callee.Str
}
