// Copyright 2018 The CUE Authors
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

// Package errors defines the error type shared by the simplifier,
// evaluator, and cache: collected diagnostics rather than panics.
//
// It is a narrowed adaptation of cuelang.org/go/cue/errors: the same
// Message/Error/list shape, without CUE's multi-file token.Pos machinery.
package errors

import (
	"fmt"
	"sort"
)

// Pos is a source location. The zero value means "no position known",
// which is normal for errors raised by the evaluator rather than the
// (external) parser.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" && p.Line == 0 {
		return ""
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

func (p Pos) less(q Pos) bool {
	if p.File != q.File {
		return p.File < q.File
	}
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Message holds a format string and its arguments, evaluated lazily so
// that repeated construction of an unreported error is cheap.
type Message struct {
	format string
	args   []interface{}
}

// NewMessage creates a Message from a format string and its arguments.
func NewMessage(format string, args []interface{}) Message {
	return Message{format: format, args: args}
}

// NewMessagef is the variadic form of NewMessage.
func NewMessagef(format string, args ...interface{}) Message {
	return NewMessage(format, args)
}

func (m Message) Msg() (string, []interface{}) { return m.format, m.args }

func (m Message) Error() string { return fmt.Sprintf(m.format, m.args...) }

// An Error is a diagnostic collected by the simplifier, evaluator, or
// cache. It is never raised as a panic; it accumulates in a Context and
// is diffed frame to frame.
type Error interface {
	error
	Position() Pos
	Path() []string
}

var _ Error = &posError{}

type posError struct {
	pos  Pos
	path []string
	Message
}

// Newf creates an Error with the given position and no path.
func Newf(pos Pos, format string, args ...interface{}) Error {
	return &posError{pos: pos, Message: NewMessagef(format, args...)}
}

// NewPathf creates an Error tagged with a path (e.g. the selector chain
// to the subexpression that failed).
func NewPathf(pos Pos, path []string, format string, args ...interface{}) Error {
	return &posError{pos: pos, path: path, Message: NewMessagef(format, args...)}
}

func (e *posError) Position() Pos     { return e.pos }
func (e *posError) Path() []string    { return e.path }

// list is a flattened, order-preserving collection of Errors, itself
// satisfying Error so that a whole frame's diagnostics can be handled
// uniformly with a single one.
type list []Error

var _ Error = list(nil)

// Append adds b to a, flattening b if it is itself a list. Either
// argument may be nil.
func Append(a, b Error) Error {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	var out list
	out = appendOne(out, a)
	out = appendOne(out, b)
	return out
}

func appendOne(out list, err Error) list {
	if l, ok := err.(list); ok {
		return append(out, l...)
	}
	return append(out, err)
}

func (p list) Error() string {
	switch len(p) {
	case 0:
		return ""
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0].Error(), len(p)-1)
}

func (p list) Position() Pos {
	if len(p) == 0 {
		return Pos{}
	}
	return p[0].Position()
}

func (p list) Path() []string {
	if len(p) == 0 {
		return nil
	}
	return p[0].Path()
}

// Sort orders a list of Errors by position, with unpositioned errors
// sorted first so that scheduler diagnostics print stably.
func Sort(a []Error) {
	sort.SliceStable(a, func(i, j int) bool {
		return a[i].Position().less(a[j].Position())
	})
}

// Strings flattens err into individual messages, in the order they were
// appended. It is used by the scheduler's frame-to-frame diff, which
// treats the error set as a set of distinct strings (see
// internal/scheduler).
func Strings(err Error) []string {
	if err == nil {
		return nil
	}
	if l, ok := err.(list); ok {
		out := make([]string, 0, len(l))
		for _, e := range l {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
