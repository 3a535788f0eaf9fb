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

package main

import (
	"fmt"
	"strings"

	"flitter.dev/flitter/internal/value"
)

// parseDefines turns the repeated --define key=value[;value...] flag
// (cmd/cue/cmd/flags.go's flagInject/"-t" follows the same
// accumulate-into-a-map shape for --inject) into top-level name
// bindings. Each semicolon-separated value parses as a number via
// value.ParseNumber (supporting the relaxed timecode grammar), falling
// back to a symbol for anything that doesn't parse as one, then all
// values for one key combine into a single Vector the way a literal
// sequence of them would in-language.
func parseDefines(raw []string) (map[string]value.Vector, error) {
	defs := make(map[string]value.Vector, len(raw))
	for _, entry := range raw {
		key, rest, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed define %q, want key=value", entry)
		}
		v, err := parseDefineValue(rest)
		if err != nil {
			return nil, fmt.Errorf("define %q: %w", key, err)
		}
		defs[key] = v
	}
	return defs, nil
}

func parseDefineValue(s string) (value.Vector, error) {
	parts := strings.Split(s, ";")
	nums := make([]float64, len(parts))
	syms := make([]value.Symbol, len(parts))
	numeric, symbolic := false, false
	for i, p := range parts {
		if n, ok := value.ParseNumber(p); ok {
			nums[i] = n
			numeric = true
			continue
		}
		syms[i] = value.Intern(p)
		symbolic = true
	}
	switch {
	case numeric && symbolic:
		return value.Vector{}, fmt.Errorf("cannot mix numbers and symbols in %q", s)
	case numeric:
		return value.Numbers(nums...), nil
	default:
		return value.Symbols(syms...), nil
	}
}
