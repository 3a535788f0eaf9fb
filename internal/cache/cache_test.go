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

package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-quicktest/qt"

	"flitter.dev/flitter/internal/cache"
)

func TestTextRecomputesOnMtimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("one"), 0o644)))

	c := cache.New()
	v, ok := c.Text(path, "utf-8")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v, "one"))

	time.Sleep(10 * time.Millisecond)
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("two"), 0o644)))

	v, ok = c.Text(path, "utf-8")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v, "two"))
}

func TestTextMissingFileReturnsFalse(t *testing.T) {
	c := cache.New()
	_, ok := c.Text(filepath.Join(t.TempDir(), "missing.txt"), "utf-8")
	qt.Assert(t, qt.IsFalse(ok))
}

func TestCleanEvictsAndCallsCleanup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("x"), 0o644)))

	cleaned := false
	c := cache.New()
	_, ok := c.Get(cache.Key{Path: path, Kind: cache.KindText}, func(full string) (interface{}, func(), error) {
		return "x", func() { cleaned = true }, nil
	})
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(c.Len(), 1))

	evicted := c.Clean(-time.Second) // everything is "older" than a negative max age
	qt.Assert(t, qt.Equals(evicted, 1))
	qt.Assert(t, qt.Equals(c.Len(), 0))
	qt.Assert(t, qt.IsTrue(cleaned))
}

func TestGetReturnsStaleValueOnComputeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("x"), 0o644)))

	c := cache.New()
	calls := 0
	compute := func(full string) (interface{}, func(), error) {
		calls++
		if calls == 1 {
			return "ok", nil, nil
		}
		return nil, nil, errors.New("boom")
	}
	v, ok := c.Get(cache.Key{Path: path, Kind: cache.KindText}, compute)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v.(string), "ok"))

	time.Sleep(10 * time.Millisecond)
	qt.Assert(t, qt.IsNil(os.WriteFile(path, []byte("y"), 0o644)))

	v, ok = c.Get(cache.Key{Path: path, Kind: cache.KindText}, compute)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(v.(string), "ok"))
}
