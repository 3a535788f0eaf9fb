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

// Package cache implements C5, the shared file cache: a single
// process-wide, root-relative, mtime-validated cache of decoded
// artifacts keyed by (path, kind, params). It is grounded on
// internal/fscache/fs_cache.go's CueCacheFS: the same "read, compare
// mtime, recompute on change, share the cached value across aliases"
// shape, generalized from one artifact kind (a cached *ast.File) to
// the six kinds flitter.dev/flitter/internal/lang programs read
// (text, flitter_program, csv_row, image, mesh, video_frames).
package cache

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"flitter.dev/flitter/internal/logging"
)

// Kind identifies an artifact family (spec.md §4.5).
type Kind uint8

const (
	KindText Kind = iota
	KindProgram
	KindCSVRow
	KindImage
	KindVideoFrames
	KindMesh
)

// entry is one cached artifact: its decoded value, the source mtime
// it was computed from, the last access time for eviction, and an
// optional cleanup hook run when the entry is evicted.
type entry struct {
	value   interface{}
	modTime time.Time
	touched time.Time
	cleanup func()
}

// Key identifies one cache slot: a path plus the artifact kind and
// whatever parameters distinguish entries under the same kind (the
// encoding for text, the sorted definitions for flitter_program, the
// consumer ID for video_frames). Params is a preformatted string, so
// keys compare with plain ==.
type Key struct {
	Path   string
	Kind   Kind
	Params string
}

// Cache is the process-wide shared cache (spec.md §4.5, §5 "The file
// cache is process-local to the scheduler").
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	root    string
}

// New creates an empty Cache with no root set (paths are used as-is).
func New() *Cache {
	return &Cache{entries: map[Key]*entry{}}
}

// SetRoot sets the directory relative paths are resolved against.
func (c *Cache) SetRoot(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = root
}

// resolve returns the absolute path used to stat/read path.
func (c *Cache) resolve(path string) string {
	if c.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

// Get returns the cached artifact for key if its source mtime still
// matches, recomputing via compute otherwise (spec.md §4.5 "if mtime
// changed the entry is recomputed"). Every access (hit or recompute)
// refreshes touched. A missing file or a compute error logs a warning
// and, if a previous artifact exists, returns that stale value rather
// than nothing; with no previous artifact it returns (nil, false)
// (spec.md §4.5 Error policy).
func (c *Cache) Get(key Key, compute func(path string) (interface{}, func(), error)) (interface{}, bool) {
	full := c.resolve(key.Path)
	info, statErr := os.Stat(full)

	c.mu.Lock()
	prev, hasPrev := c.entries[key]
	c.mu.Unlock()

	if statErr != nil {
		logging.Warningf("cache: stat %s: %v", full, statErr)
		if hasPrev {
			return prev.value, true
		}
		return nil, false
	}

	if hasPrev && prev.modTime.Equal(info.ModTime()) {
		c.mu.Lock()
		prev.touched = now()
		c.mu.Unlock()
		return prev.value, true
	}

	value, cleanup, err := compute(full)
	if err != nil {
		logging.Warningf("cache: compute %s: %v", full, err)
		if hasPrev {
			c.mu.Lock()
			prev.touched = now()
			c.mu.Unlock()
			return prev.value, true
		}
		return nil, false
	}

	c.mu.Lock()
	if hasPrev && prev.cleanup != nil {
		prev.cleanup()
	}
	c.entries[key] = &entry{value: value, modTime: info.ModTime(), touched: now(), cleanup: cleanup}
	c.mu.Unlock()
	return value, true
}

// now is a seam so tests can observe a fixed clock; production always
// uses the wall clock.
var now = time.Now

// Clean evicts every entry whose touched time is older than maxAge,
// calling its cleanup hook first (spec.md §4.5 "calling their
// cleanup()").
func (c *Cache) Clean(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := now().Add(-maxAge)
	evicted := 0
	for key, e := range c.entries {
		if e.touched.Before(cutoff) {
			if e.cleanup != nil {
				e.cleanup()
			}
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Purge drops and cleans up every cached entry, used at shutdown
// (spec.md §5 "closes every cache entry via cleanup").
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.cleanup != nil {
			e.cleanup()
		}
		delete(c.entries, key)
	}
}

// Len reports the number of cached entries, for tests and metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
