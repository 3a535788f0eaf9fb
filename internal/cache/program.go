// Copyright 2024 CUE Authors
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

package cache

import (
	"fmt"
	"sort"

	"flitter.dev/flitter/internal/lang"
	"flitter.dev/flitter/internal/value"
)

// ProgramParser parses the file at path into an unsimplified Top. The
// grammar itself is outside this module's scope (spec.md §6 "The
// parser is external"); the scheduler supplies this callback, backed
// by whatever front end is wired in.
type ProgramParser func(path string) (*lang.Top, error)

// Program implements the flitter_program(definitions) artifact
// (spec.md §4.5): parse path, then simplify it once with the given
// definitions bound as static names, and cache the simplified result
// keyed on (path, sorted definitions). A later call with the same
// path and definitions, and an unchanged mtime, returns the cached
// simplified AST without re-parsing or re-simplifying.
func (c *Cache) Program(path string, defs map[string]value.Vector, parse ProgramParser) (*lang.Top, bool) {
	v, ok := c.Get(Key{Path: path, Kind: KindProgram, Params: defsKey(defs)}, func(full string) (interface{}, func(), error) {
		top, err := parse(full)
		if err != nil {
			return nil, nil, err
		}
		names := map[string]lang.NameEntry{}
		for name, val := range defs {
			names[name] = lang.NameEntry{HasVector: true, Vector: val}
		}
		ctx := lang.NewContext(lang.NewEnv().Extend(names), nil)
		simplified := lang.Simplify(top, ctx)
		simplifiedTop, ok := simplified.(*lang.Top)
		if !ok {
			simplifiedTop = &lang.Top{Items: []lang.Expr{simplified}}
		}
		return simplifiedTop, nil, nil
	})
	if !ok {
		return nil, false
	}
	return v.(*lang.Top), true
}

func defsKey(defs map[string]value.Vector) string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	s := ""
	for _, name := range names {
		s += fmt.Sprintf("%s=%s;", name, defs[name].String())
	}
	return s
}
