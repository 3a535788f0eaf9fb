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
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Image implements the image artifact (spec.md §4.5): a decoded image
// handle, cached by path and recomputed on mtime change. Decoding
// itself uses the standard library's image registry (gif/jpeg/png)
// rather than a third-party codec: no image-decoding library appears
// anywhere in the retrieved corpus, so there is nothing to ground an
// alternative on (see DESIGN.md).
func (c *Cache) Image(path string) (image.Image, bool) {
	v, ok := c.Get(Key{Path: path, Kind: KindImage}, func(full string) (interface{}, func(), error) {
		f, err := os.Open(full)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, nil, err
		}
		return img, nil, nil
	})
	if !ok {
		return nil, false
	}
	return v.(image.Image), true
}
