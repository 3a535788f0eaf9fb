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

package statefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"

	"flitter.dev/flitter/internal/statefile"
	"flitter.dev/flitter/internal/value"
)

func TestSaveLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	pages := map[string][]value.Entry{
		"default": {
			{Key: value.SymbolOf("x"), Value: value.Number(1.5)},
			{Key: value.SymbolOf("color"), Value: value.Numbers(1, 0, 0)},
		},
		"second": {
			{Key: value.SymbolOf("label"), Value: value.SymbolOf("hello")},
		},
	}

	qt.Assert(t, qt.IsNil(statefile.Save(path, pages)))

	got, err := statefile.Load(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(got, 2))
	qt.Assert(t, qt.HasLen(got["default"], 2))

	v, ok := lookup(got["default"], value.SymbolOf("x"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.NumbersSlice(), []float64{1.5}))

	v, ok = lookup(got["default"], value.SymbolOf("color"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.NumbersSlice(), []float64{1, 0, 0}))

	v, ok = lookup(got["second"], value.SymbolOf("label"))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.DeepEquals(v.SymbolsSlice()[0].String(), "hello"))
}

func lookup(entries []value.Entry, key value.Vector) (value.Vector, bool) {
	for _, e := range entries {
		if value.Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return value.Vector{}, false
}

func TestLoadMissingFileReturnsEmptyMap(t *testing.T) {
	got, err := statefile.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(got, 0))
}

func TestSaveWritesAtomicallyViaTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	qt.Assert(t, qt.IsNil(statefile.Save(path, map[string][]value.Entry{
		"default": {{Key: value.SymbolOf("x"), Value: value.Number(1)}},
	})))

	entries, err := os.ReadDir(dir)
	qt.Assert(t, qt.IsNil(err))
	// No leftover .tmp file after a successful Save.
	qt.Assert(t, qt.HasLen(entries, 1))
	qt.Assert(t, qt.Equals(entries[0].Name(), "state.yaml"))
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("pages: [this is not a map]"), 0o644)))

	_, err := statefile.Load(path)
	qt.Assert(t, qt.Not(qt.IsNil(err)))
}
