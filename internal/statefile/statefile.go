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

// Package statefile persists global_state across restarts (spec.md
// §4.7 step 5 "Persist"), one yaml document holding every page, grounded on
// cuelang.org/go's own use of gopkg.in/yaml.v3 for its module.cue
// lockfile encoding (internal/mod's resolution cache) — the same
// "shell out to yaml.v3 for a human-editable snapshot of internal
// state" idiom, applied here to StateDict entries instead of module
// version locks.
package statefile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"flitter.dev/flitter/internal/value"
)

// document is the on-disk shape: one entries list per page name.
type document struct {
	Pages map[string][]entryYAML `yaml:"pages"`
}

type entryYAML struct {
	Key   interface{} `yaml:"key"`
	Value interface{} `yaml:"value"`
}

// Save atomically writes pages to path (write-to-temp, rename, the
// same pattern internal/cueconfig uses for its auth.json).
func Save(path string, pages map[string][]value.Entry) error {
	doc := document{Pages: make(map[string][]entryYAML, len(pages))}
	for page, entries := range pages {
		list := make([]entryYAML, len(entries))
		for i, e := range entries {
			list[i] = entryYAML{Key: vectorToYAML(e.Key), Value: vectorToYAML(e.Value)}
		}
		doc.Pages[page] = list
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("statefile: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("statefile: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("statefile: rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

// Load reads pages back from path. A missing file is not an error: it
// yields an empty map, matching "none" being a valid starting state
// machine state (spec.md §4.7).
func Load(path string) (map[string][]value.Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string][]value.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statefile: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("statefile: unmarshal %s: %w", path, err)
	}

	pages := make(map[string][]value.Entry, len(doc.Pages))
	for page, list := range doc.Pages {
		entries := make([]value.Entry, len(list))
		for i, e := range list {
			key, err := vectorFromYAML(e.Key)
			if err != nil {
				return nil, fmt.Errorf("statefile: page %q entry %d key: %w", page, i, err)
			}
			val, err := vectorFromYAML(e.Value)
			if err != nil {
				return nil, fmt.Errorf("statefile: page %q entry %d value: %w", page, i, err)
			}
			entries[i] = value.Entry{Key: key, Value: val}
		}
		pages[page] = entries
	}
	return pages, nil
}

func vectorToYAML(v value.Vector) interface{} {
	if v.IsNull() {
		return nil
	}
	if v.IsSymbolic() {
		syms := v.SymbolsSlice()
		if len(syms) == 1 {
			return syms[0].String()
		}
		out := make([]interface{}, len(syms))
		for i, s := range syms {
			out[i] = s.String()
		}
		return out
	}
	nums := v.NumbersSlice()
	if len(nums) == 1 {
		return nums[0]
	}
	out := make([]interface{}, len(nums))
	for i, n := range nums {
		out[i] = n
	}
	return out
}

func vectorFromYAML(x interface{}) (value.Vector, error) {
	if list, ok := x.([]interface{}); ok {
		return value.Coerce(list)
	}
	if f, ok := x.(int); ok {
		return value.Coerce(float64(f))
	}
	return value.Coerce(x)
}
