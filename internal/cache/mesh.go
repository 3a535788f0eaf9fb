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

// Mesh is a decoded geometry handle (spec.md §4.5): opaque to the
// core, since mesh formats are a renderer-backend concern. The core
// only needs to cache whatever the backend's decoder produces and
// hand it back keyed by path.
type Mesh struct {
	Vertices []float64
	Indices  []uint32
}

// MeshDecoder decodes a mesh file; supplied by whichever renderer
// backend knows its wire format (spec.md §4.6 "each renderer backend
// runs in its own worker process" — mesh decoding belongs there, not
// to the shared core).
type MeshDecoder func(path string) (*Mesh, error)

// MeshArtifact implements the mesh artifact: decode once per mtime,
// using decode as the format-specific decoder.
func (c *Cache) MeshArtifact(path string, decode MeshDecoder) (*Mesh, bool) {
	v, ok := c.Get(Key{Path: path, Kind: KindMesh}, func(full string) (interface{}, func(), error) {
		m, err := decode(full)
		if err != nil {
			return nil, nil, err
		}
		return m, nil, nil
	})
	if !ok {
		return nil, false
	}
	return v.(*Mesh), true
}
