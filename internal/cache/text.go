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
	"os"
)

// Text implements the text artifact (spec.md §4.5): the full content
// of path as a string. encoding only distinguishes cache entries; the
// bytes are returned as read, with no decoding or error-handling
// policy applied. There is no errors-policy parameter.
func (c *Cache) Text(path string, encoding string) (string, bool) {
	v, ok := c.Get(Key{Path: path, Kind: KindText, Params: encoding}, func(full string) (interface{}, func(), error) {
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, nil, err
		}
		return string(data), nil, nil
	})
	if !ok {
		return "", false
	}
	return v.(string), true
}
